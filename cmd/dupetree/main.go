package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"dupetree/internal/compare"
	"dupetree/internal/config"
	"dupetree/internal/dedupe"
	"dupetree/internal/manifest"
	"dupetree/internal/report"
)

type options struct {
	configPath string
	workers    int
	all        bool
	quiet      bool
	verbose    bool
	noManifest bool
	output     string
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.configPath, "config", "c", "dupetree.yaml", "Config file path")
	fs.IntVarP(&o.workers, "workers", "w", 0, "Number of hashing workers (0 = one per CPU)")
	fs.BoolVar(&o.all, "all", false, "Report every group, not only duplicates")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Do not print a digest line per file")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose logging")
	fs.BoolVar(&o.noManifest, "no-manifest", false, "Skip the manifest root")
	fs.StringVarP(&o.output, "output", "o", "", "Write the manifest as JSON to this file")
}

// load reads the config file and applies flags that were set explicitly.
func (o *options) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if fs.Changed("workers") {
		cfg.Workers = o.workers
	}
	if o.all {
		cfg.Report.DuplicatesOnly = false
	}
	if o.quiet {
		cfg.Report.PrintDigests = false
	}
	if o.noManifest {
		cfg.Manifest = false
	}
	if o.output != "" && !cfg.Manifest {
		return nil, fmt.Errorf("--output requires the manifest to be enabled")
	}
	return cfg, cfg.Validate()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newScanner(cfg *config.Config, logger *zap.Logger, stdout, stderr io.Writer) *dedupe.Scanner {
	opts := []dedupe.Option{dedupe.WithProgressOutput(stderr)}
	if cfg.Report.PrintDigests {
		opts = append(opts, dedupe.WithDigestOutput(stdout))
	}
	return dedupe.NewScanner(cfg, logger, opts...)
}

func runScan(ctx context.Context, cmd *cobra.Command, o *options, root string) error {
	cfg, err := o.load(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(o.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	stdout := cmd.OutOrStdout()
	result, err := newScanner(cfg, logger, stdout, cmd.ErrOrStderr()).Scan(ctx, root)
	if err != nil {
		return err
	}

	groups := result.Catalog.Groups()
	if cfg.Report.DuplicatesOnly {
		groups = result.Catalog.Duplicates()
	}

	fmt.Fprintln(stdout, "Report:")
	if err := report.Render(stdout, groups); err != nil {
		return err
	}

	failures := result.Catalog.Failures()
	if len(failures) > 0 {
		fmt.Fprintf(stdout, "\n⚠ %d entries could not be hashed:\n", len(failures))
		if err := report.RenderFailures(stdout, failures); err != nil {
			return err
		}
	}

	if result.Manifest != nil {
		fmt.Fprintf(stdout, "\nManifest root: %s (%d files)\n", result.Manifest.Root, len(result.Manifest.Entries))
		if o.output != "" {
			if err := manifest.Save(result.Manifest, result.Root.Path(), o.output); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Manifest saved to: %s\n", o.output)
		}
	}
	fmt.Fprintf(stdout, "Duplicate groups: %d\n", len(result.Catalog.Duplicates()))
	return nil
}

func runCompare(ctx context.Context, cmd *cobra.Command, o *options, left, right string) error {
	cfg, err := o.load(cmd.Flags())
	if err != nil {
		return err
	}
	cfg.Report.PrintDigests = false
	cfg.Manifest = false

	logger, err := newLogger(o.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	scanner := newScanner(cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
	a, err := scanner.Scan(ctx, left)
	if err != nil {
		return err
	}
	b, err := scanner.Scan(ctx, right)
	if err != nil {
		return err
	}

	result, err := compare.Compare(ctx, a.Root, b.Root)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), compare.FormatReport(result))
	return nil
}

func newRootCommand(ctx context.Context) *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "dupetree [flags] <directory>",
		Short: "Find duplicate files and directories",
		Long: `dupetree hashes every file under a directory with SHA-256, folds the
digests of each directory's children into a directory digest, and reports
every group of files or directories that share a digest.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(ctx, cmd, o, args[0])
		},
	}
	bindFlags(root.PersistentFlags(), o)

	root.AddCommand(&cobra.Command{
		Use:   "compare <left> <right>",
		Short: "Compare the immediate entries of two directories",
		Long: `compare reports the share of <left>'s immediate entries whose names also
appear in <right>, and whether the two directories have identical content.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(ctx, cmd, o, args[0], args[1])
		},
	})

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(ctx).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Bar renders hashing progress on a single terminal line.
type Bar struct {
	mu       sync.Mutex
	writer   io.Writer
	width    int
	current  int64
	total    int64
	enabled  bool
	rendered bool
}

func New(w io.Writer) *Bar {
	return &Bar{
		writer:  w,
		width:   50,
		enabled: w != nil,
	}
}

// Update sets the counters and redraws. It matches barrier.ProgressFunc.
func (b *Bar) Update(current, total int64) {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = current
	b.total = total
	b.render()
}

// Percent returns the last rendered percentage, 100 when there is nothing to do.
func (b *Bar) Percent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.percent()
}

func (b *Bar) percent() float64 {
	if b.total == 0 {
		return 100
	}
	return float64(b.current) / float64(b.total) * 100
}

// render must be called with mu already locked
func (b *Bar) render() {
	filledWidth := int(float64(b.width) * b.percent() / 100)
	if filledWidth > b.width {
		filledWidth = b.width
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", b.width-filledWidth)

	// Clear the line and write progress
	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% (%d/%d)", bar, int(b.percent()), b.current, b.total)
	b.rendered = true
}

// Finish ends the progress line.
func (b *Bar) Finish() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rendered {
		fmt.Fprintf(b.writer, "\n")
	}
}

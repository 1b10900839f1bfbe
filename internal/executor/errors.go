package executor

import "errors"

// ErrPending is returned by Task.Result before the task has resolved.
var ErrPending = errors.New("task has not resolved")

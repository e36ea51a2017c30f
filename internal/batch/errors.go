package batch

import "errors"

// ErrInputDirMissing indicates the input directory does not exist.
var ErrInputDirMissing = errors.New("input directory does not exist")

// ErrAlreadyRunning indicates another run holds the output directory lock.
var ErrAlreadyRunning = errors.New("another run is using the output directory")

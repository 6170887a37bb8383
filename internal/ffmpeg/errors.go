package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrFailed indicates an ffmpeg invocation exited with an error.
var ErrFailed = errors.New("ffmpeg failed")

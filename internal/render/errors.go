package render

import "errors"

// ErrRenderFailed indicates synthesis or transcoding failed for one unit.
// Per-unit and recoverable: RenderMany records the failure and continues
// with the remaining units.
var ErrRenderFailed = errors.New("render failed")

// ErrSayNotFound indicates the platform speech synthesizer is not available.
var ErrSayNotFound = errors.New("say command not found")

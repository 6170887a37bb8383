package pipeline

import "errors"

// ErrAllFiltered means every extracted chapter was dropped by the heading
// gate, leaving nothing to narrate. This is an input problem, not a partial
// failure, and halts the run.
var ErrAllFiltered = errors.New("no chapters passed the heading filter")

// ErrAllRewritesFailed means every chapter that passed the filter failed to
// rewrite. Single-chapter rewrite failures only skip that chapter; losing
// all of them leaves nothing to render and halts the run.
var ErrAllRewritesFailed = errors.New("every chapter failed to rewrite")

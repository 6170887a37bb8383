package rewrite

import "errors"

// ErrRewriteFailed indicates a chapter's rewrite did not complete.
// Per-chapter and recoverable: the orchestrator excludes the chapter and the
// run continues. A failure on any chunk aborts the whole chapter's rewrite;
// no partial narration is ever returned.
var ErrRewriteFailed = errors.New("rewrite failed")

// ErrEmptyResponse indicates the transformation service returned no content.
var ErrEmptyResponse = errors.New("empty response from transformation service")

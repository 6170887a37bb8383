package book

import "errors"

// ErrNoChapters indicates the source directory yielded no chapter files.
// This is fatal: there is nothing to narrate.
var ErrNoChapters = errors.New("no chapters found")

// ErrBadChapterFile indicates a chapter file could not be read.
var ErrBadChapterFile = errors.New("cannot read chapter file")

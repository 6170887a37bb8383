// Package book is the document source for the pipeline. It yields an
// ordered list of chapters, each with a stable order, a title, and raw
// (possibly markup-bearing) text, and exposes the structural-heading
// predicate used by the filtering stage.
package book

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Chapter is one chapter of the source document.
// Order is stable and unique; chapters are immutable once extracted.
type Chapter struct {
	Order   int
	Title   string
	RawText string
}

// Source yields the ordered chapters of a document.
type Source interface {
	Chapters(ctx context.Context) ([]Chapter, error)
}

// chapterFileName matches chapter files: a numeric order prefix, a
// separator, a title slug, and a supported extension.
// Examples: 01_introduction.md, 2-control-flow.html, 10_closures.txt.
var chapterFileName = regexp.MustCompile(`^(\d+)[-_](.+)\.(md|markdown|html|htm|txt)$`)

// Compile-time interface compliance check.
var _ Source = (*DirSource)(nil)

// DirSource reads chapters from a directory of ordered chapter files.
// File contents are read concurrently; ordering comes from the numeric
// filename prefix, not from read completion.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource for the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Chapters reads all chapter files in the directory, ordered by their
// numeric prefix. Returns ErrNoChapters if no file matches the chapter
// naming pattern.
func (s *DirSource) Chapters(ctx context.Context) ([]Chapter, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read chapter directory %s: %w", s.dir, err)
	}

	type fileRef struct {
		order int
		title string
		path  string
	}

	var refs []fileRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := chapterFileName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		order, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		refs = append(refs, fileRef{
			order: order,
			title: titleFromSlug(m[2]),
			path:  filepath.Join(s.dir, e.Name()),
		})
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%s: %w", s.dir, ErrNoChapters)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].order < refs[j].order })

	// Extraction has no ordering dependency between files, so reads run
	// concurrently. Results land in a pre-sized slice indexed by position.
	chapters := make([]Chapter, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(ref.path) // #nosec G304 -- path comes from directory listing
			if err != nil {
				return fmt.Errorf("%s: %w: %w", ref.path, ErrBadChapterFile, err)
			}
			title := ref.title
			if h := firstHeading(string(raw)); h != "" {
				title = h
			}
			chapters[i] = Chapter{
				Order:   ref.order,
				Title:   title,
				RawText: string(raw),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return chapters, nil
}

// titleFromSlug turns a filename slug into a display title.
func titleFromSlug(slug string) string {
	s := strings.ReplaceAll(slug, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.TrimSpace(s)
}

var (
	markdownHeading = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+)$`)
	htmlHeading     = regexp.MustCompile(`(?is)<h[1-6][^>]*>(.*?)</h[1-6]>`)
)

// HasHeading reports whether raw text carries a structural heading marker
// (markdown # heading or HTML <h1>..<h6>). The filtering stage drops
// chapters without one: front matter, dedications, and similar material.
func HasHeading(raw string) bool {
	return markdownHeading.MatchString(raw) || htmlHeading.MatchString(raw)
}

// firstHeading returns the text of the first structural heading, or "".
func firstHeading(raw string) string {
	if m := markdownHeading.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := htmlHeading.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(stripTags(m[1]))
	}
	return ""
}

var (
	htmlTag        = regexp.MustCompile(`<[^>]*>`)
	htmlBlockClose = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|blockquote|pre)>`)
	markdownFence  = regexp.MustCompile("(?s)```.*?```")
	markdownInline = regexp.MustCompile("[*_`]+")
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips markup from raw chapter text, yielding prose for the
// rewrite and render stages. HTML block closings become paragraph breaks so
// downstream chunking still sees paragraph structure.
func PlainText(raw string) string {
	text := markdownFence.ReplaceAllString(raw, "")
	text = htmlBlockClose.ReplaceAllString(text, "\n\n")
	text = stripTags(text)
	text = markdownHeading.ReplaceAllString(text, "$1")
	text = markdownInline.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func stripTags(s string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(s, ""))
}

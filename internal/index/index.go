// Package index assembles the dictionary, collection, browser and search
// views built from one scan into a single immutable Index, and provides its
// binary snapshot format.
package index

import (
	"github.com/rs/zerolog"

	"github.com/agersant/polaris/internal/browser"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
	"github.com/agersant/polaris/internal/scanner"
	"github.com/agersant/polaris/internal/search"
	"github.com/agersant/polaris/internal/vfs"
)

// Index is the complete, read-only view of one scan: semantic (Collection),
// file-tree (Browser) and full-text (Search), all referencing one shared
// Dictionary. Every field is safe for concurrent reads.
type Index struct {
	Dict       *dictionary.Dictionary
	Collection *collection.Collection
	Browser    *browser.Browser
	Search     *search.Index
}

// Builder accumulates one scan's directories and songs into the three
// views, sharing a single dictionary.Builder so handles agree across them.
// Not safe for concurrent use: the caller drains the scanner's channels
// into it from a single goroutine.
type Builder struct {
	dict       *dictionary.Builder
	collection *collection.Builder
	browser    *browser.Builder
	search     *search.Builder
	logger     zerolog.Logger
}

// NewBuilder returns an empty Builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	dict := dictionary.NewBuilder()
	return &Builder{
		dict:       dict,
		collection: collection.NewBuilder(dict),
		browser:    browser.NewBuilder(),
		search:     search.NewBuilder(dict),
		logger:     logger,
	}
}

// AddDirectory feeds one scanned directory into the file-tree view.
func (b *Builder) AddDirectory(d scanner.Directory) {
	b.browser.AddDirectory(d)
}

// AddSong feeds one scanned song into all three views. A song whose paths
// are not valid UTF-8 is dropped with a logged warning rather than failing
// the whole build, matching spec.md §4.5 step 1.
func (b *Builder) AddSong(s scanner.Song) {
	if err := b.collection.AddSong(s); err != nil {
		b.logger.Warn().Err(err).Str("path", s.VirtualPath).Msg("dropping song with invalid path")
		return
	}
	b.browser.AddSong(s)
	b.search.AddSong(s)
}

// Build finalizes the shared dictionary and every view into an immutable
// Index.
func (b *Builder) Build() *Index {
	col := b.collection.Build()
	return &Index{
		Dict:       col.Dict,
		Collection: col,
		Browser:    b.browser.Build(),
		Search:     b.search.Build(),
	}
}

// BuildFromScan drains sc's two channels for mounts into a fresh Index. The
// channels are read concurrently with the scan so a slow consumer never
// deadlocks a full scanner buffer, while the Builder itself is driven
// single-threaded from this goroutine.
func BuildFromScan(sc *scanner.Scanner, mounts []vfs.Mount, logger zerolog.Logger) *Index {
	dirCh, songCh := sc.Scan(mounts)
	b := NewBuilder(logger)

	for dirCh != nil || songCh != nil {
		select {
		case d, ok := <-dirCh:
			if !ok {
				dirCh = nil
				continue
			}
			b.AddDirectory(d)
		case s, ok := <-songCh:
			if !ok {
				songCh = nil
				continue
			}
			b.AddSong(s)
		}
	}

	return b.Build()
}

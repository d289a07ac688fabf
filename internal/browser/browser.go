// Package browser provides the directory-tree view of a scanned library:
// listing one directory's immediate children, and flattening a directory
// into every song beneath it via prefix matching over virtual paths.
package browser

import (
	"sort"
	"strings"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/scanner"
)

// FileKind distinguishes the two entries a directory listing can contain.
type FileKind int

const (
	FileDirectory FileKind = iota
	FileSong
)

// File is one entry in a directory listing.
type File struct {
	Kind        FileKind
	VirtualPath string
}

// Browser is the built, read-only directory tree. Safe for concurrent reads.
type Browser struct {
	directories map[string][]File
	flattened   *trieNode
	dirEntries  []DirectoryEntry
}

// DirectoryEntry is a snapshot-friendly, handle-free record of one scanned
// directory, used to rebuild a Browser from a persisted index.
type DirectoryEntry struct {
	VirtualPath   string
	VirtualParent string
}

// SongEntry is a snapshot-friendly record of one scanned song's location,
// used to rebuild a Browser's listings and flatten trie.
type SongEntry struct {
	VirtualPath   string
	VirtualParent string
}

// Directories returns every directory this Browser was built from, for
// snapshot serialization.
func (b *Browser) Directories() []DirectoryEntry {
	return b.dirEntries
}

// FromEntries rebuilds a Browser from its flattened directory and song
// entries, used when restoring a persisted index.
func FromEntries(dirs []DirectoryEntry, songs []SongEntry) *Browser {
	b := NewBuilder()
	for _, d := range dirs {
		b.AddDirectory(scanner.Directory{VirtualPath: d.VirtualPath, VirtualParent: d.VirtualParent})
	}
	for _, s := range songs {
		b.AddSong(scanner.Song{VirtualPath: s.VirtualPath, VirtualParent: s.VirtualParent})
	}
	return b.Build()
}

// Browse lists the immediate children of virtualPath, sorted by kind then
// path so the result is deterministic regardless of scan order.
func (b *Browser) Browse(virtualPath string) ([]File, error) {
	files, ok := b.directories[virtualPath]
	if !ok {
		return nil, apperror.NotFoundf(apperror.ErrDirectoryNotFound, "%s", virtualPath)
	}
	out := append([]File(nil), files...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].VirtualPath < out[j].VirtualPath
	})
	return out, nil
}

// Flatten returns every song virtual path whose path has virtualPath as a
// component-wise prefix, sorted. A path that is not a component-wise prefix
// of any song path (including a directory with no songs beneath it) is
// reported as not found; the empty path returns every song.
func (b *Browser) Flatten(virtualPath string) ([]string, error) {
	components := splitVirtual(virtualPath)
	node := b.flattened
	for _, c := range components {
		child, ok := node.children[c]
		if !ok {
			return nil, apperror.NotFoundf(apperror.ErrDirectoryNotFound, "%s", virtualPath)
		}
		node = child
	}

	var out []string
	node.collectLeaves(&out)
	sort.Strings(out)
	return out, nil
}

// Builder accumulates scanned directories and songs into a Browser. Not
// safe for concurrent use.
type Builder struct {
	directories map[string][]File
	flattened   *trieNode
	dirEntries  []DirectoryEntry
}

// NewBuilder returns an empty Builder. The implicit "" root above every
// mount always exists, even before any directory has been scanned, so
// Browse("") never reports not-found.
func NewBuilder() *Builder {
	b := &Builder{
		directories: make(map[string][]File),
		flattened:   newTrieNode(),
	}
	b.ensureDirectory("")
	return b
}

// AddDirectory registers a scanned directory and lists it as a child of its
// parent. Mount roots have an empty VirtualParent, which lists them as
// children of the implicit "" path above every mount, matching Browse("").
func (b *Builder) AddDirectory(d scanner.Directory) {
	b.ensureDirectory(d.VirtualPath)
	b.ensureDirectory(d.VirtualParent)
	b.directories[d.VirtualParent] = append(b.directories[d.VirtualParent], File{Kind: FileDirectory, VirtualPath: d.VirtualPath})
	b.dirEntries = append(b.dirEntries, DirectoryEntry{VirtualPath: d.VirtualPath, VirtualParent: d.VirtualParent})
}

// AddSong lists a scanned song as a child of its parent directory and
// inserts its path into the flatten trie.
func (b *Builder) AddSong(s scanner.Song) {
	b.ensureDirectory(s.VirtualParent)
	b.directories[s.VirtualParent] = append(b.directories[s.VirtualParent], File{Kind: FileSong, VirtualPath: s.VirtualPath})
	b.flattened.insert(splitVirtual(s.VirtualPath), s.VirtualPath)
}

func (b *Builder) ensureDirectory(virtualPath string) {
	if _, ok := b.directories[virtualPath]; !ok {
		b.directories[virtualPath] = nil
	}
}

// Build finalizes the directory map and trie into an immutable Browser.
func (b *Builder) Build() *Browser {
	return &Browser{directories: b.directories, flattened: b.flattened, dirEntries: b.dirEntries}
}

func splitVirtual(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// trieNode is a hand-rolled prefix tree over path components. The pack
// carries no third-party trie implementation, and this structure is small
// enough that reaching for one would add a dependency to save a dozen
// lines; see DESIGN.md.
type trieNode struct {
	children map[string]*trieNode
	leaf     string
	isLeaf   bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

func (n *trieNode) insert(components []string, fullPath string) {
	node := n
	for _, c := range components {
		child, ok := node.children[c]
		if !ok {
			child = newTrieNode()
			node.children[c] = child
		}
		node = child
	}
	node.leaf = fullPath
	node.isLeaf = true
}

func (n *trieNode) collectLeaves(out *[]string) {
	if n.isLeaf {
		*out = append(*out, n.leaf)
	}
	for _, child := range n.children {
		child.collectLeaves(out)
	}
}

// Package collection builds and queries the semantic (artist/album/genre)
// view of a scanned music library: the Collection type and its Builder.
package collection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agersant/polaris/internal/dictionary"
	"github.com/agersant/polaris/internal/scanner"
)

// SongKey identifies a song by its interned virtual path.
type SongKey struct {
	VirtualPath dictionary.Handle
}

// AlbumKey identifies an album by its (album-)artists and name. ArtistsKey
// is a deterministic encoding of the artist handle list so AlbumKey remains
// a comparable map key; Artists on the Album value itself carries the
// actual ordered list for display.
type AlbumKey struct {
	ArtistsKey string
	Name       dictionary.Handle
	HasName    bool
}

func artistsKey(handles []dictionary.Handle) string {
	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = strconv.FormatUint(uint64(h), 10)
	}
	return strings.Join(parts, ",")
}

// NewAlbumKey builds an AlbumKey from a resolved artist handle list and
// album name handle. Exported so httpapi can build the key a
// /albums/{artists}/{name} route names from dictionary lookups, without
// this package exposing ArtistsKey's encoding as something callers should
// construct by hand.
func NewAlbumKey(artists []dictionary.Handle, name dictionary.Handle, hasName bool) AlbumKey {
	return AlbumKey{ArtistsKey: artistsKey(artists), Name: name, HasName: hasName}
}

// Song is the in-collection, post-interning form of a scanned song.
type Song struct {
	RealPath      dictionary.Handle
	VirtualPath   dictionary.Handle
	VirtualParent dictionary.Handle

	Artwork    dictionary.Handle
	HasArtwork bool

	DiscNumber  *uint32
	TrackNumber *uint32

	Title   dictionary.Handle
	HasTitle bool
	Album    dictionary.Handle
	HasAlbum bool
	Year     *int32

	DurationSeconds *uint32

	Artists      []dictionary.Handle
	AlbumArtists []dictionary.Handle
	Lyricists    []dictionary.Handle
	Composers    []dictionary.Handle
	Genres       []dictionary.Handle
	Labels       []dictionary.Handle

	DateAdded int64
}

// Album is keyed by (album-)artists and name.
type Album struct {
	Name       dictionary.Handle
	HasName    bool
	Artwork    dictionary.Handle
	HasArtwork bool
	Artists    []dictionary.Handle
	Year       *int32
	DateAdded  int64
	Songs      map[SongKey]struct{}
}

// Artist holds the four disjoint album relationships spec.md §3 defines.
type Artist struct {
	Name        dictionary.Handle
	Albums      map[AlbumKey]struct{} // performer (album-artist)
	FeaturedOn  map[AlbumKey]struct{} // artist but not album-artist
	Composed    map[AlbumKey]struct{}
	WroteLyrics map[AlbumKey]struct{}
}

// Genre holds every song tagged with it.
type Genre struct {
	Name  dictionary.Handle
	Songs map[SongKey]struct{}
}

// Collection is the built, immutable semantic index.
type Collection struct {
	Dict *dictionary.Dictionary

	Songs   map[SongKey]*Song
	Albums  map[AlbumKey]*Album
	Artists map[dictionary.Handle]*Artist
	Genres  map[dictionary.Handle]*Genre

	// RecentAlbums is every AlbumKey in Albums, sorted by -DateAdded then
	// collated album name, computed once at build time.
	RecentAlbums []AlbumKey
}

// Builder accumulates songs and directories from a scan into a Collection.
// It owns a dictionary.Builder and is not safe for concurrent use; the
// index builder drives it from a single goroutine that drains the
// scanner's channels.
type Builder struct {
	dict *dictionary.Builder

	songs   map[SongKey]*Song
	albums  map[AlbumKey]*Album
	artists map[dictionary.Handle]*Artist
	genres  map[dictionary.Handle]*Genre
}

// NewBuilder returns an empty Builder backed by the given dictionary
// builder (shared with Browser/Search so all views intern into one
// dictionary).
func NewBuilder(dict *dictionary.Builder) *Builder {
	return &Builder{
		dict:    dict,
		songs:   make(map[SongKey]*Song),
		albums:  make(map[AlbumKey]*Album),
		artists: make(map[dictionary.Handle]*Artist),
		genres:  make(map[dictionary.Handle]*Genre),
	}
}

// AddSong implements spec.md §4.5 steps 1-9: intern every string field,
// insert the song, upsert its album, and update artist/genre memberships.
func (b *Builder) AddSong(s scanner.Song) error {
	if !utf8Valid(s.RealPath) || !utf8Valid(s.VirtualPath) {
		return fmt.Errorf("song path is not valid UTF-8: %q", s.VirtualPath)
	}

	song := &Song{
		RealPath:      b.dict.GetOrIntern(s.RealPath),
		VirtualPath:   b.dict.GetOrIntern(s.VirtualPath),
		VirtualParent: b.dict.GetOrIntern(s.VirtualParent),
		DiscNumber:    s.DiscNumber,
		TrackNumber:   s.TrackNumber,
		Year:          s.Year,
		DurationSeconds: s.DurationSeconds,
		DateAdded:     s.DateAdded,
	}

	if s.Artwork != "" {
		song.Artwork = b.dict.GetOrIntern(s.Artwork)
		song.HasArtwork = true
	}

	// Titles, albums and artist-family names are interned through the
	// canonical path so near-duplicate casing/punctuation collapse to one
	// handle (spec.md §4.5 step 3).
	if s.Title != nil {
		if h, ok := b.dict.GetOrInternCanon(*s.Title); ok {
			song.Title, song.HasTitle = h, true
		}
	}
	if s.Album != nil {
		if h, ok := b.dict.GetOrInternCanon(*s.Album); ok {
			song.Album, song.HasAlbum = h, true
		}
	}

	song.Artists = internCanonAll(b.dict, s.Artists)
	song.AlbumArtists = internCanonAll(b.dict, s.AlbumArtists)
	song.Lyricists = internCanonAll(b.dict, s.Lyricists)
	song.Composers = internCanonAll(b.dict, s.Composers)
	song.Genres = internCanonAll(b.dict, s.Genres)
	song.Labels = internCanonAll(b.dict, s.Labels)

	key := SongKey{VirtualPath: song.VirtualPath}
	b.songs[key] = song

	albumArtists := song.AlbumArtists
	if len(albumArtists) == 0 {
		albumArtists = song.Artists
	}
	albumKey := NewAlbumKey(albumArtists, song.Album, song.HasAlbum)
	b.upsertAlbum(albumKey, song, key)

	for _, a := range song.AlbumArtists {
		b.artist(a).Albums[albumKey] = struct{}{}
	}
	for _, a := range song.Artists {
		if !containsHandle(song.AlbumArtists, a) {
			if len(song.AlbumArtists) == 0 {
				b.artist(a).Albums[albumKey] = struct{}{}
			} else {
				b.artist(a).FeaturedOn[albumKey] = struct{}{}
			}
		}
	}
	for _, a := range song.Composers {
		b.artist(a).Composed[albumKey] = struct{}{}
	}
	for _, a := range song.Lyricists {
		b.artist(a).WroteLyrics[albumKey] = struct{}{}
	}

	for _, g := range song.Genres {
		genre := b.genres[g]
		if genre == nil {
			genre = &Genre{Name: g, Songs: make(map[SongKey]struct{})}
			b.genres[g] = genre
		}
		genre.Songs[key] = struct{}{}
	}

	return nil
}

// upsertAlbum applies the first-non-null-wins / always-overwrite conflict
// policy from original_source's add_song_to_album: name/artwork/year are
// set only if not already present, date_added takes the max, and artists
// is unconditionally overwritten by the most recently processed song -
// scan order dependent, documented as the chosen tie-break in DESIGN.md.
func (b *Builder) upsertAlbum(key AlbumKey, song *Song, songKey SongKey) {
	album := b.albums[key]
	if album == nil {
		album = &Album{Songs: make(map[SongKey]struct{})}
		b.albums[key] = album
	}

	if !album.HasName && song.HasAlbum {
		album.Name, album.HasName = song.Album, true
	}
	if !album.HasArtwork && song.HasArtwork {
		album.Artwork, album.HasArtwork = song.Artwork, true
	}
	if album.Year == nil && song.Year != nil {
		album.Year = song.Year
	}
	if song.DateAdded > album.DateAdded {
		album.DateAdded = song.DateAdded
	}

	albumArtists := song.AlbumArtists
	if len(albumArtists) == 0 {
		albumArtists = song.Artists
	}
	album.Artists = albumArtists

	album.Songs[songKey] = struct{}{}
}

func (b *Builder) artist(name dictionary.Handle) *Artist {
	a := b.artists[name]
	if a == nil {
		a = &Artist{
			Name:        name,
			Albums:      make(map[AlbumKey]struct{}),
			FeaturedOn:  make(map[AlbumKey]struct{}),
			Composed:    make(map[AlbumKey]struct{}),
			WroteLyrics: make(map[AlbumKey]struct{}),
		}
		b.artists[name] = a
	}
	return a
}

// Build finalizes the dictionary and computes RecentAlbums.
func (b *Builder) Build() *Collection {
	dict := b.dict.Build()

	recent := make([]AlbumKey, 0, len(b.albums))
	for k := range b.albums {
		recent = append(recent, k)
	}
	sortByRecency(recent, b.albums, dict)

	return &Collection{
		Dict:         dict,
		Songs:        b.songs,
		Albums:       b.albums,
		Artists:      b.artists,
		Genres:       b.genres,
		RecentAlbums: recent,
	}
}

func internCanonAll(b *dictionary.Builder, values []string) []dictionary.Handle {
	out := make([]dictionary.Handle, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if h, ok := b.GetOrInternCanon(v); ok {
			out = append(out, h)
		}
	}
	return out
}

func containsHandle(haystack []dictionary.Handle, needle dictionary.Handle) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func utf8Valid(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}

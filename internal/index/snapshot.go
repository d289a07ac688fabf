package index

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/agersant/polaris/internal/browser"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
	"github.com/agersant/polaris/internal/search"
)

// snapshotMagic identifies a Polaris index snapshot file; snapshotVersion
// is bumped whenever the DTO shapes below change incompatibly. A mismatch
// on either is treated as "no snapshot" rather than an error, per spec.md
// §4.8.
const (
	snapshotMagic   = "PLRSIDX1"
	snapshotVersion = 1
)

// snapshotDTO is the fully flattened, handle-based wire format. Maps keyed
// by structs (SongKey, AlbumKey) are not carried directly since msgpack's
// struct-key-map support is unverified; everything is flattened to slices
// of plain DTOs instead and rebuilt on decode.
type snapshotDTO struct {
	Magic   string
	Version uint32

	Strings  []string
	SortKeys []uint32
	Canon    map[string]uint32

	Directories []directoryDTO
	Songs       []songDTO
	Albums      []albumDTO
	Artists     []artistDTO
	Genres      []genreDTO

	RecentAlbums []albumKeyDTO

	SearchPostings []postingDTO
}

type directoryDTO struct {
	VirtualPath   string
	VirtualParent string
}

type albumKeyDTO struct {
	ArtistsKey string
	Name       uint32
	HasName    bool
}

type songDTO struct {
	VirtualPath   uint32
	RealPath      uint32
	VirtualParent uint32

	HasArtwork bool
	Artwork    uint32

	DiscNumber  *uint32
	TrackNumber *uint32

	HasTitle bool
	Title    uint32
	HasAlbum bool
	Album    uint32
	Year     *int32

	DurationSeconds *uint32

	Artists      []uint32
	AlbumArtists []uint32
	Lyricists    []uint32
	Composers    []uint32
	Genres       []uint32
	Labels       []uint32

	DateAdded int64
}

type albumDTO struct {
	Key albumKeyDTO

	HasArtwork bool
	Artwork    uint32
	Artists    []uint32
	Year       *int32
	DateAdded  int64
	Songs      []uint32 // song virtual path handles
}

type artistDTO struct {
	Name        uint32
	Albums      []albumKeyDTO
	FeaturedOn  []albumKeyDTO
	Composed    []albumKeyDTO
	WroteLyrics []albumKeyDTO
}

type genreDTO struct {
	Name  uint32
	Songs []uint32
}

type postingDTO struct {
	Token string
	Songs []uint32
}

// Encode serializes idx to Polaris's compact binary snapshot format.
func Encode(idx *Index) ([]byte, error) {
	dto := snapshotDTO{
		Magic:    snapshotMagic,
		Version:  snapshotVersion,
		Strings:  idx.Dict.Strings(),
		SortKeys: idx.Dict.SortKeys(),
		Canon:    handleMapToUint32(idx.Dict.Canon()),
	}

	for _, dir := range idx.Browser.Directories() {
		dto.Directories = append(dto.Directories, directoryDTO{VirtualPath: dir.VirtualPath, VirtualParent: dir.VirtualParent})
	}

	col := idx.Collection
	for key, s := range col.Songs {
		_ = key
		dto.Songs = append(dto.Songs, songDTO{
			VirtualPath:     uint32(s.VirtualPath),
			RealPath:        uint32(s.RealPath),
			VirtualParent:   uint32(s.VirtualParent),
			HasArtwork:      s.HasArtwork,
			Artwork:         uint32(s.Artwork),
			DiscNumber:      s.DiscNumber,
			TrackNumber:     s.TrackNumber,
			HasTitle:        s.HasTitle,
			Title:           uint32(s.Title),
			HasAlbum:        s.HasAlbum,
			Album:           uint32(s.Album),
			Year:            s.Year,
			DurationSeconds: s.DurationSeconds,
			Artists:         handlesToUint32(s.Artists),
			AlbumArtists:    handlesToUint32(s.AlbumArtists),
			Lyricists:       handlesToUint32(s.Lyricists),
			Composers:       handlesToUint32(s.Composers),
			Genres:          handlesToUint32(s.Genres),
			Labels:          handlesToUint32(s.Labels),
			DateAdded:       s.DateAdded,
		})
	}

	for key, a := range col.Albums {
		songs := make([]uint32, 0, len(a.Songs))
		for sk := range a.Songs {
			songs = append(songs, uint32(sk.VirtualPath))
		}
		dto.Albums = append(dto.Albums, albumDTO{
			Key:        albumKeyDTOFrom(key),
			HasArtwork: a.HasArtwork,
			Artwork:    uint32(a.Artwork),
			Artists:    handlesToUint32(a.Artists),
			Year:       a.Year,
			DateAdded:  a.DateAdded,
			Songs:      songs,
		})
	}

	for name, artist := range col.Artists {
		dto.Artists = append(dto.Artists, artistDTO{
			Name:        uint32(name),
			Albums:      albumKeySetToDTO(artist.Albums),
			FeaturedOn:  albumKeySetToDTO(artist.FeaturedOn),
			Composed:    albumKeySetToDTO(artist.Composed),
			WroteLyrics: albumKeySetToDTO(artist.WroteLyrics),
		})
	}

	for name, genre := range col.Genres {
		songs := make([]uint32, 0, len(genre.Songs))
		for sk := range genre.Songs {
			songs = append(songs, uint32(sk.VirtualPath))
		}
		dto.Genres = append(dto.Genres, genreDTO{Name: uint32(name), Songs: songs})
	}

	for _, key := range col.RecentAlbums {
		dto.RecentAlbums = append(dto.RecentAlbums, albumKeyDTOFrom(key))
	}

	for token, songs := range idx.Search.Postings() {
		handles := make([]uint32, 0, len(songs))
		for sk := range songs {
			handles = append(handles, uint32(sk.VirtualPath))
		}
		dto.SearchPostings = append(dto.SearchPostings, postingDTO{Token: token, Songs: handles})
	}

	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	if err := msgpack.NewEncoder(&buf).Encode(dto); err != nil {
		return nil, fmt.Errorf("encode index snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a Polaris index snapshot produced by Encode. A bad
// magic or version mismatch returns ErrIncompatibleSnapshot so the caller
// can treat it as "no snapshot" per spec.md §4.8, rather than a hard error.
func Decode(data []byte) (*Index, error) {
	if len(data) < len(snapshotMagic) || string(data[:len(snapshotMagic)]) != snapshotMagic {
		return nil, ErrIncompatibleSnapshot
	}

	var dto snapshotDTO
	if err := msgpack.NewDecoder(bytes.NewReader(data[len(snapshotMagic):])).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode index snapshot: %w", err)
	}
	if dto.Version != snapshotVersion {
		return nil, ErrIncompatibleSnapshot
	}

	dict := dictionary.FromParts(dto.Strings, dto.SortKeys, uint32MapToHandle(dto.Canon))

	songs := make(map[collection.SongKey]*collection.Song, len(dto.Songs))
	for _, s := range dto.Songs {
		key := collection.SongKey{VirtualPath: dictionary.Handle(s.VirtualPath)}
		songs[key] = &collection.Song{
			RealPath:        dictionary.Handle(s.RealPath),
			VirtualPath:     dictionary.Handle(s.VirtualPath),
			VirtualParent:   dictionary.Handle(s.VirtualParent),
			Artwork:         dictionary.Handle(s.Artwork),
			HasArtwork:      s.HasArtwork,
			DiscNumber:      s.DiscNumber,
			TrackNumber:     s.TrackNumber,
			Title:           dictionary.Handle(s.Title),
			HasTitle:        s.HasTitle,
			Album:           dictionary.Handle(s.Album),
			HasAlbum:        s.HasAlbum,
			Year:            s.Year,
			DurationSeconds: s.DurationSeconds,
			Artists:         uint32ToHandles(s.Artists),
			AlbumArtists:    uint32ToHandles(s.AlbumArtists),
			Lyricists:       uint32ToHandles(s.Lyricists),
			Composers:       uint32ToHandles(s.Composers),
			Genres:          uint32ToHandles(s.Genres),
			Labels:          uint32ToHandles(s.Labels),
			DateAdded:       s.DateAdded,
		}
	}

	albums := make(map[collection.AlbumKey]*collection.Album, len(dto.Albums))
	for _, a := range dto.Albums {
		key := albumKeyFromDTO(a.Key)
		albumSongs := make(map[collection.SongKey]struct{}, len(a.Songs))
		for _, h := range a.Songs {
			albumSongs[collection.SongKey{VirtualPath: dictionary.Handle(h)}] = struct{}{}
		}
		albums[key] = &collection.Album{
			Name:       key.Name,
			HasName:    key.HasName,
			Artwork:    dictionary.Handle(a.Artwork),
			HasArtwork: a.HasArtwork,
			Artists:    uint32ToHandles(a.Artists),
			Year:       a.Year,
			DateAdded:  a.DateAdded,
			Songs:      albumSongs,
		}
	}

	artists := make(map[dictionary.Handle]*collection.Artist, len(dto.Artists))
	for _, a := range dto.Artists {
		artists[dictionary.Handle(a.Name)] = &collection.Artist{
			Name:        dictionary.Handle(a.Name),
			Albums:      albumKeySetFromDTO(a.Albums),
			FeaturedOn:  albumKeySetFromDTO(a.FeaturedOn),
			Composed:    albumKeySetFromDTO(a.Composed),
			WroteLyrics: albumKeySetFromDTO(a.WroteLyrics),
		}
	}

	genres := make(map[dictionary.Handle]*collection.Genre, len(dto.Genres))
	for _, g := range dto.Genres {
		genreSongs := make(map[collection.SongKey]struct{}, len(g.Songs))
		for _, h := range g.Songs {
			genreSongs[collection.SongKey{VirtualPath: dictionary.Handle(h)}] = struct{}{}
		}
		genres[dictionary.Handle(g.Name)] = &collection.Genre{Name: dictionary.Handle(g.Name), Songs: genreSongs}
	}

	recent := make([]collection.AlbumKey, 0, len(dto.RecentAlbums))
	for _, k := range dto.RecentAlbums {
		recent = append(recent, albumKeyFromDTO(k))
	}

	col := &collection.Collection{
		Dict:         dict,
		Songs:        songs,
		Albums:       albums,
		Artists:      artists,
		Genres:       genres,
		RecentAlbums: recent,
	}

	dirs := make([]browser.DirectoryEntry, 0, len(dto.Directories))
	for _, d := range dto.Directories {
		dirs = append(dirs, browser.DirectoryEntry{VirtualPath: d.VirtualPath, VirtualParent: d.VirtualParent})
	}
	br := browser.FromEntries(dirs, songsToBrowserFiles(songs, dict))

	postings := make(map[string]map[collection.SongKey]struct{}, len(dto.SearchPostings))
	for _, p := range dto.SearchPostings {
		set := make(map[collection.SongKey]struct{}, len(p.Songs))
		for _, h := range p.Songs {
			set[collection.SongKey{VirtualPath: dictionary.Handle(h)}] = struct{}{}
		}
		postings[p.Token] = set
	}
	si := search.FromPostings(postings)

	return &Index{Dict: dict, Collection: col, Browser: br, Search: si}, nil
}

func songsToBrowserFiles(songs map[collection.SongKey]*collection.Song, dict *dictionary.Dictionary) []browser.SongEntry {
	out := make([]browser.SongEntry, 0, len(songs))
	for _, s := range songs {
		out = append(out, browser.SongEntry{VirtualPath: dict.Resolve(s.VirtualPath), VirtualParent: dict.Resolve(s.VirtualParent)})
	}
	return out
}

func albumKeyDTOFrom(k collection.AlbumKey) albumKeyDTO {
	return albumKeyDTO{ArtistsKey: k.ArtistsKey, Name: uint32(k.Name), HasName: k.HasName}
}

func albumKeyFromDTO(d albumKeyDTO) collection.AlbumKey {
	return collection.AlbumKey{ArtistsKey: d.ArtistsKey, Name: dictionary.Handle(d.Name), HasName: d.HasName}
}

func albumKeySetToDTO(set map[collection.AlbumKey]struct{}) []albumKeyDTO {
	out := make([]albumKeyDTO, 0, len(set))
	for k := range set {
		out = append(out, albumKeyDTOFrom(k))
	}
	return out
}

func albumKeySetFromDTO(list []albumKeyDTO) map[collection.AlbumKey]struct{} {
	out := make(map[collection.AlbumKey]struct{}, len(list))
	for _, d := range list {
		out[albumKeyFromDTO(d)] = struct{}{}
	}
	return out
}

func handlesToUint32(handles []dictionary.Handle) []uint32 {
	out := make([]uint32, len(handles))
	for i, h := range handles {
		out[i] = uint32(h)
	}
	return out
}

func uint32ToHandles(values []uint32) []dictionary.Handle {
	out := make([]dictionary.Handle, len(values))
	for i, v := range values {
		out[i] = dictionary.Handle(v)
	}
	return out
}

func handleMapToUint32(m map[string]dictionary.Handle) map[string]uint32 {
	out := make(map[string]uint32, len(m))
	for k, v := range m {
		out[k] = uint32(v)
	}
	return out
}

func uint32MapToHandle(m map[string]uint32) map[string]dictionary.Handle {
	out := make(map[string]dictionary.Handle, len(m))
	for k, v := range m {
		out[k] = dictionary.Handle(v)
	}
	return out
}

// ErrIncompatibleSnapshot is returned by Decode when the data is not a
// recognizable Polaris snapshot or was written by an incompatible version.
var ErrIncompatibleSnapshot = fmt.Errorf("index: snapshot missing or incompatible version")

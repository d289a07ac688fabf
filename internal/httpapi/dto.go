package httpapi

import (
	"github.com/agersant/polaris/internal/browser"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
)

type fileDTO struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

func fileDTOs(files []browser.File) []fileDTO {
	out := make([]fileDTO, len(files))
	for i, f := range files {
		kind := "song"
		if f.Kind == browser.FileDirectory {
			kind = "directory"
		}
		out[i] = fileDTO{Kind: kind, Path: f.VirtualPath}
	}
	return out
}

type songDTOValue struct {
	Path            string   `json:"path"`
	Parent          string   `json:"parent"`
	Title           string   `json:"title,omitempty"`
	Album           string   `json:"album,omitempty"`
	Artists         []string `json:"artists,omitempty"`
	AlbumArtists    []string `json:"album_artists,omitempty"`
	Composers       []string `json:"composers,omitempty"`
	Lyricists       []string `json:"lyricists,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Labels          []string `json:"labels,omitempty"`
	Year            *int32   `json:"year,omitempty"`
	TrackNumber     *uint32  `json:"track_number,omitempty"`
	DiscNumber      *uint32  `json:"disc_number,omitempty"`
	DurationSeconds *uint32  `json:"duration_seconds,omitempty"`
	Artwork         string   `json:"artwork,omitempty"`
}

func songDTO(dict *dictionary.Dictionary, song *collection.Song) *songDTOValue {
	dto := &songDTOValue{
		Path:            dict.Resolve(song.VirtualPath),
		Parent:          dict.Resolve(song.VirtualParent),
		Artists:         resolveAll(dict, song.Artists),
		AlbumArtists:    resolveAll(dict, song.AlbumArtists),
		Composers:       resolveAll(dict, song.Composers),
		Lyricists:       resolveAll(dict, song.Lyricists),
		Genres:          resolveAll(dict, song.Genres),
		Labels:          resolveAll(dict, song.Labels),
		Year:            song.Year,
		TrackNumber:     song.TrackNumber,
		DiscNumber:      song.DiscNumber,
		DurationSeconds: song.DurationSeconds,
	}
	if song.HasTitle {
		dto.Title = dict.Resolve(song.Title)
	}
	if song.HasAlbum {
		dto.Album = dict.Resolve(song.Album)
	}
	if song.HasArtwork {
		dto.Artwork = dict.Resolve(song.Artwork)
	}
	return dto
}

type songResultDTO struct {
	Song  *songDTOValue `json:"song,omitempty"`
	Error string        `json:"error,omitempty"`
}

func resolveAll(dict *dictionary.Dictionary, handles []dictionary.Handle) []string {
	if len(handles) == 0 {
		return nil
	}
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = dict.Resolve(h)
	}
	return out
}

type albumDTOValue struct {
	Artists   []string       `json:"artists,omitempty"`
	Name      string         `json:"name,omitempty"`
	Artwork   string         `json:"artwork,omitempty"`
	Year      *int32         `json:"year,omitempty"`
	DateAdded int64          `json:"date_added"`
	Songs     []songDTOValue `json:"songs,omitempty"`
}

func albumDTO(dict *dictionary.Dictionary, album *collection.Album) albumDTOValue {
	dto := albumDTOValue{
		Artists:   resolveAll(dict, album.Artists),
		Year:      album.Year,
		DateAdded: album.DateAdded,
	}
	if album.HasName {
		dto.Name = dict.Resolve(album.Name)
	}
	if album.HasArtwork {
		dto.Artwork = dict.Resolve(album.Artwork)
	}
	return dto
}

type artistHeaderDTO struct {
	Name string `json:"name"`
}

type artistDTOValue struct {
	Name        string          `json:"name"`
	Albums      []albumDTOValue `json:"albums,omitempty"`
	FeaturedOn  []albumDTOValue `json:"featured_on,omitempty"`
	Composed    []albumDTOValue `json:"composed,omitempty"`
	WroteLyrics []albumDTOValue `json:"wrote_lyrics,omitempty"`
}

type genreHeaderDTO struct {
	Name      string `json:"name"`
	SongCount int    `json:"song_count"`
}

type genreDTOValue struct {
	Name  string         `json:"name"`
	Songs []songDTOValue `json:"songs,omitempty"`
}

func albumKeysOf(m map[collection.AlbumKey]struct{}) []collection.AlbumKey {
	out := make([]collection.AlbumKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func songKeysOf(m map[collection.SongKey]struct{}) []collection.SongKey {
	out := make([]collection.SongKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// resolveAlbumKey rebuilds the AlbumKey a /albums/{artists}/{name} route
// names from its dictionary-resolved components. It fails closed: an
// artist or album name never interned by the current index cannot possibly
// identify a real album, so the caller should report not-found without
// consulting the collection at all.
func resolveAlbumKey(dict *dictionary.Dictionary, artists []string, name string) (collection.AlbumKey, bool) {
	handles := make([]dictionary.Handle, 0, len(artists))
	for _, a := range artists {
		if a == "" {
			continue
		}
		h, ok := dict.GetCanon(a)
		if !ok {
			return collection.AlbumKey{}, false
		}
		handles = append(handles, h)
	}
	if name == "" {
		return collection.NewAlbumKey(handles, 0, false), true
	}
	h, ok := dict.GetCanon(name)
	if !ok {
		return collection.AlbumKey{}, false
	}
	return collection.NewAlbumKey(handles, h, true), true
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agersant/polaris/internal/config"
	"github.com/agersant/polaris/internal/db"
	"github.com/agersant/polaris/internal/index"
	"github.com/agersant/polaris/internal/indexmanager"
	"github.com/agersant/polaris/internal/metadata"
	"github.com/agersant/polaris/internal/orchestrator"
	"github.com/agersant/polaris/internal/playliststore"
	"github.com/agersant/polaris/internal/scanner"
	"github.com/agersant/polaris/internal/thumbnail"
	"github.com/agersant/polaris/internal/userstore"
	"github.com/agersant/polaris/internal/vfs"
)

func strp(s string) *string { return &s }
func u32p(n uint32) *uint32 { return &n }

type fixture struct {
	server *Server
	token  string
}

func newFixture(t *testing.T, songs []scanner.Song) *fixture {
	t.Helper()
	logger := zerolog.Nop()

	b := index.NewBuilder(logger)
	for _, s := range songs {
		b.AddSong(s)
	}
	manager := indexmanager.New(t.TempDir()+"/collection.index", logger)
	manager.ReplaceIndex(b.Build())

	sqliteDB, err := db.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteDB.Close() })

	users, err := userstore.New(sqliteDB)
	require.NoError(t, err)
	admin := true
	require.NoError(t, users.SyncFromConfig([]config.UserConfig{
		{Name: "alice", Admin: &admin, HashedPassword: config.HashPassword("alice", "secret")},
	}))

	playlists, err := playliststore.New(sqliteDB)
	require.NoError(t, err)

	thumbnails, err := thumbnail.New(t.TempDir() + "/thumbnails")
	require.NoError(t, err)

	mountedVFS := vfs.New(nil)
	orch := orchestrator.New(manager, scanner.New(logger), mountedVFS.Mounts(), logger)

	server := New(manager, orch, mountedVFS, users, playlists, thumbnails, nil, nil, logger)

	user, err := users.Authenticate("alice", "secret")
	require.NoError(t, err)
	token, err := users.IssueToken(user.ID, 0)
	require.NoError(t, err)

	return &fixture{server: server, token: token}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func sampleSongs() []scanner.Song {
	return []scanner.Song{
		{
			SongMetadata: metadata.SongMetadata{
				Title:       strp("Kai"),
				Album:       strp("ISDN"),
				Artists:     []string{"FSOL"},
				TrackNumber: u32p(1),
			},
			VirtualPath:   "Music/FSOL/ISDN/01 Kai.mp3",
			VirtualParent: "Music/FSOL/ISDN",
		},
		{
			SongMetadata: metadata.SongMetadata{
				Title:       strp("Max"),
				Album:       strp("ISDN"),
				Artists:     []string{"FSOL"},
				TrackNumber: u32p(2),
			},
			VirtualPath:   "Music/FSOL/ISDN/02 Max.mp3",
			VirtualParent: "Music/FSOL/ISDN",
		},
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	f := newFixture(t, sampleSongs())
	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := httptest.NewRecorder()
	body, err := json.Marshal(loginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.IsAdmin)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := httptest.NewRecorder()
	body, err := json.Marshal(loginRequest{Username: "alice", Password: "wrong"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAlbumsListsBuiltAlbum(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := f.do(t, http.MethodGet, "/albums", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var albums []albumDTOValue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &albums))
	require.Len(t, albums, 1)
	assert.Equal(t, "ISDN", albums[0].Name)
	assert.Equal(t, []string{"FSOL"}, albums[0].Artists)
}

func TestHandleAlbumReturnsSongsInOrder(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := f.do(t, http.MethodGet, "/albums/FSOL/ISDN", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var album albumDTOValue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &album))
	require.Len(t, album.Songs, 2)
	assert.Equal(t, "Kai", album.Songs[0].Title)
	assert.Equal(t, "Max", album.Songs[1].Title)
}

func TestHandleAlbumUnknownArtistIsNotFound(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := f.do(t, http.MethodGet, "/albums/Nobody/ISDN", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleArtistGroupsAlbumsByRole(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := f.do(t, http.MethodGet, "/artists/FSOL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var artist artistDTOValue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &artist))
	assert.Equal(t, "FSOL", artist.Name)
	require.Len(t, artist.Albums, 1)
	assert.Equal(t, "ISDN", artist.Albums[0].Name)
}

func TestHandleSearchFindsByTitle(t *testing.T) {
	f := newFixture(t, sampleSongs())
	rec := f.do(t, http.MethodGet, "/search/Kai", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []songDTOValue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	require.Len(t, songs, 1)
	assert.Equal(t, "Kai", songs[0].Title)
}

func TestPlaylistLifecycle(t *testing.T) {
	f := newFixture(t, sampleSongs())

	createRec := f.do(t, http.MethodPost, "/api/playlists", createPlaylistRequest{
		Name:  "Favorites",
		Songs: []string{"Music/FSOL/ISDN/01 Kai.mp3"},
	})
	require.Equal(t, http.StatusCreated, createRec.Code)
	var created playlistDTOValue
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	assert.Equal(t, "Favorites", created.Name)

	listRec := f.do(t, http.MethodGet, "/api/playlists", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var playlists []playlistDTOValue
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &playlists))
	require.Len(t, playlists, 1)

	getRec := f.do(t, http.MethodGet, "/api/playlists/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	var fetched playlistDTOValue
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &fetched))
	assert.Equal(t, []string{"Music/FSOL/ISDN/01 Kai.mp3"}, fetched.Songs)

	deleteRec := f.do(t, http.MethodDelete, "/api/playlists/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, deleteRec.Code)

	missingRec := f.do(t, http.MethodGet, "/api/playlists/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, missingRec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Package httpapi exposes the collection index, scan orchestrator, and the
// supplemented accounts/playlists/artwork/last.fm features over HTTP. The
// router is built the way alexander-bruun-Orb's API service builds its own:
// one chi.Router, chi middleware for the cross-cutting concerns, and a
// Routes-style grouping of related endpoints behind an auth gate.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/agersant/polaris/internal/indexmanager"
	"github.com/agersant/polaris/internal/lastfm"
	"github.com/agersant/polaris/internal/orchestrator"
	"github.com/agersant/polaris/internal/playliststore"
	"github.com/agersant/polaris/internal/thumbnail"
	"github.com/agersant/polaris/internal/userstore"
	"github.com/agersant/polaris/internal/vfs"
)

// Server aggregates every collaborator the HTTP surface needs.
type Server struct {
	manager      *indexmanager.Manager
	orchestrator *orchestrator.Orchestrator
	vfs          *vfs.VFS
	users        *userstore.Store
	playlists    *playliststore.Store
	thumbnails   thumbnail.Thumbnailer
	lastfmClient *lastfm.Client
	lastfm       *lastfm.Reporter
	logger       zerolog.Logger
	router       chi.Router
}

// New builds a Server and its router. lastfmClient and lastfmReporter are
// both nil when last.fm linking is disabled in configuration; the relevant
// handlers report the feature as unavailable rather than panicking.
func New(
	manager *indexmanager.Manager,
	orch *orchestrator.Orchestrator,
	vfs *vfs.VFS,
	users *userstore.Store,
	playlists *playliststore.Store,
	thumbnails thumbnail.Thumbnailer,
	lastfmClient *lastfm.Client,
	lastfmReporter *lastfm.Reporter,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		manager:      manager,
		orchestrator: orch,
		vfs:          vfs,
		users:        users,
		playlists:    playlists,
		thumbnails:   thumbnails,
		lastfmClient: lastfmClient,
		lastfm:       lastfmReporter,
		logger:       logger,
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/auth/logout", s.handleLogout)

		r.Get("/browse/*", s.handleBrowse)
		r.Get("/flatten/*", s.handleFlatten)

		r.Get("/albums", s.handleAlbums)
		r.Get("/albums/random", s.handleRandomAlbums)
		r.Get("/albums/recent", s.handleRecentAlbums)
		r.Get("/albums/{artists}/{name}", s.handleAlbum)

		r.Get("/artists", s.handleArtists)
		r.Get("/artists/{name}", s.handleArtist)

		r.Get("/genres", s.handleGenres)
		r.Get("/genres/{name}", s.handleGenre)

		r.Post("/songs", s.handleSongs)
		r.Get("/search/*", s.handleSearch)

		r.Post("/trigger_index", s.handleTriggerIndex)

		r.Get("/api/artwork", s.handleArtwork)

		r.Post("/api/lastfm/link", s.handleLastfmLink)
		r.Delete("/api/lastfm/link", s.handleLastfmUnlink)
		r.Post("/api/lastfm/now_playing/*", s.handleLastfmNowPlaying)
		r.Post("/api/lastfm/scrobble/*", s.handleLastfmScrobble)

		r.Get("/api/playlists", s.handleListPlaylists)
		r.Post("/api/playlists", s.handleCreatePlaylist)
		r.Get("/api/playlists/{id}", s.handleGetPlaylist)
		r.Put("/api/playlists/{id}", s.handleSetPlaylistSongs)
		r.Delete("/api/playlists/{id}", s.handleDeletePlaylist)
	})

	s.router = r
}

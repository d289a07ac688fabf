// Package lastfm links a server account to a Last.fm user and submits
// now-playing/scrobble notifications for it, gated behind
// Config.GetLastfmConfig().Enabled. A submission looks up its song's
// artist/title/album through the core's existing query surface
// (indexmanager), never through its own storage.
package lastfm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
)

// ErrSongNotPlayable is returned when the looked-up song has no title, so
// there is nothing sensible to report to Last.fm.
var ErrSongNotPlayable = errors.New("song has no title to scrobble")

// SongLookup is the narrow slice of indexmanager.Manager this package reads
// through; it never touches collection/dictionary internals directly.
type SongLookup interface {
	GetSongs(virtualPaths []string) []collection.SongResult
	Dict() *dictionary.Dictionary
}

// Client wraps the Last.fm API for linking accounts and submitting plays.
// One Client is shared across users; api.SetSession must be paired with the
// call it authenticates, so apiMu serializes that critical section.
type Client struct {
	apiMu     sync.Mutex
	api       *lastfm.Api
	apiKey    string
	apiSecret string
}

// New creates a Client bound to one application's API credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{api: lastfm.New(apiKey, apiSecret), apiKey: apiKey, apiSecret: apiSecret}
}

// GetToken requests a fresh auth token to start the desktop-style linking
// flow (spec.md §6.1's users are server accounts with no OAuth redirect
// endpoint of their own, so this follows the token+confirm flow rather than
// a callback URL).
func (c *Client) GetToken() (string, error) {
	c.apiMu.Lock()
	defer c.apiMu.Unlock()
	token, err := c.api.GetToken()
	if err != nil {
		return "", fmt.Errorf("get lastfm token: %w", err)
	}
	return token, nil
}

// GetAuthURL returns the URL the user visits to authorize token.
func (c *Client) GetAuthURL(token string) string {
	return fmt.Sprintf("https://www.last.fm/api/auth/?api_key=%s&token=%s", c.apiKey, token)
}

// GetSession exchanges an authorized token for a session key to store
// against the local account via userstore.SetLastfmSessionKey.
func (c *Client) GetSession(token string) (username, sessionKey string, err error) {
	c.apiMu.Lock()
	defer c.apiMu.Unlock()
	if err := c.api.LoginWithToken(token); err != nil {
		return "", "", fmt.Errorf("get lastfm session: %w", err)
	}
	sessionKey = c.api.GetSessionKey()

	userInfo, err := c.api.User.GetInfo(nil)
	if err != nil {
		return "unknown", sessionKey, nil //nolint:nilerr // session is valid even if the username lookup fails
	}
	return userInfo.Name, sessionKey, nil
}

// Track is the data Last.fm's now-playing/scrobble calls need.
type Track struct {
	Artist   string
	Album    string
	Title    string
	Duration time.Duration
}

func (c *Client) updateNowPlaying(sessionKey string, t Track) error {
	c.apiMu.Lock()
	defer c.apiMu.Unlock()
	c.api.SetSession(sessionKey)

	params := lastfm.P{"artist": t.Artist, "track": t.Title}
	if t.Album != "" {
		params["album"] = t.Album
	}
	if t.Duration > 0 {
		params["duration"] = int(t.Duration.Seconds())
	}
	_, err := c.api.Track.UpdateNowPlaying(params)
	if err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

func (c *Client) scrobble(sessionKey string, t Track, playedAt time.Time) error {
	c.apiMu.Lock()
	defer c.apiMu.Unlock()
	c.api.SetSession(sessionKey)

	params := lastfm.P{"artist": t.Artist, "track": t.Title, "timestamp": playedAt.Unix()}
	if t.Album != "" {
		params["album"] = t.Album
	}
	if t.Duration > 0 {
		params["duration"] = int(t.Duration.Seconds())
	}
	_, err := c.api.Track.Scrobble(params)
	if err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}

// Reporter resolves a virtual path through SongLookup and submits it to
// Last.fm on behalf of whichever session key the caller already
// authenticated for.
type Reporter struct {
	client *Client
	lookup SongLookup
}

// NewReporter binds a Client to the index's query surface.
func NewReporter(client *Client, lookup SongLookup) *Reporter {
	return &Reporter{client: client, lookup: lookup}
}

func (r *Reporter) resolveTrack(virtualPath string) (Track, error) {
	results := r.lookup.GetSongs([]string{virtualPath})
	if len(results) != 1 || results[0].Err != nil {
		return Track{}, results[0].Err
	}
	song := results[0].Song
	if !song.HasTitle {
		return Track{}, ErrSongNotPlayable
	}

	dict := r.lookup.Dict()
	t := Track{Title: dict.Resolve(song.Title)}
	if song.HasAlbum {
		t.Album = dict.Resolve(song.Album)
	}
	if len(song.Artists) > 0 {
		t.Artist = dict.Resolve(song.Artists[0])
	}
	if song.DurationSeconds != nil {
		t.Duration = time.Duration(*song.DurationSeconds) * time.Second
	}
	return t, nil
}

// ReportNowPlaying submits a "now playing" notification for virtualPath.
func (r *Reporter) ReportNowPlaying(sessionKey, virtualPath string) error {
	t, err := r.resolveTrack(virtualPath)
	if err != nil {
		return err
	}
	return r.client.updateNowPlaying(sessionKey, t)
}

// Scrobble submits a completed play of virtualPath at playedAt.
func (r *Reporter) Scrobble(sessionKey, virtualPath string, playedAt time.Time) error {
	t, err := r.resolveTrack(virtualPath)
	if err != nil {
		return err
	}
	return r.client.scrobble(sessionKey, t, playedAt)
}

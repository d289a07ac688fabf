// Package config loads and validates the server's TOML configuration:
// mount points, the album-art filename pattern, optional DDNS updates, and
// the user list, following the teacher's koanf-based load pattern.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"regexp"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	pelletoml "github.com/pelletier/go-toml"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultAlbumArtPattern matches the conventional folder-art filename when
// the config omits album_art_pattern, mirroring scanner.DefaultArtworkPattern.
const DefaultAlbumArtPattern = `Folder\.(jpeg|jpg|png)`

const pbkdf2Iterations = 100_000
const pbkdf2KeyLen = 32

// Config is the full server configuration, loaded from a TOML file. Each
// field carries matching koanf/toml tags so Load's write-back of hashed
// passwords round-trips through the same keys it was read from.
type Config struct {
	AlbumArtPattern string           `koanf:"album_art_pattern" toml:"album_art_pattern"`
	DDNSUpdateURL   string           `koanf:"ddns_update_url" toml:"ddns_update_url"`
	MountDirs       []MountDirConfig `koanf:"mount_dirs" toml:"mount_dirs"`
	Users           []UserConfig     `koanf:"users" toml:"users"`

	Server        ServerConfig        `koanf:"server" toml:"server"`
	Lastfm        LastfmConfig        `koanf:"lastfm" toml:"lastfm"`
	Notifications NotificationsConfig `koanf:"notifications" toml:"notifications"`
}

// MountDirConfig declares one virtual-filesystem mount point.
type MountDirConfig struct {
	Name   string `koanf:"name" toml:"name"`
	Source string `koanf:"source" toml:"source"`
}

// UserConfig declares one server account. InitialPassword is hashed into
// HashedPassword on load and should not be read back out of a loaded Config.
type UserConfig struct {
	Name            string `koanf:"name" toml:"name"`
	Admin           *bool  `koanf:"admin" toml:"admin,omitempty"`
	InitialPassword string `koanf:"initial_password" toml:"initial_password,omitempty"`
	HashedPassword  string `koanf:"hashed_password" toml:"hashed_password,omitempty"`
}

// IsAdmin applies UserConfig's default (non-admin) when Admin is unset.
func (u UserConfig) IsAdmin() bool {
	return u.Admin != nil && *u.Admin
}

// ServerConfig holds networking and runtime settings with no counterpart in
// spec.md's core schema but required to actually run the HTTP surface.
type ServerConfig struct {
	Port                int    `koanf:"port" toml:"port"`
	DataDir             string `koanf:"data_dir" toml:"data_dir"`
	LogFormat           string `koanf:"log_format" toml:"log_format"` // "console" or "json"
	ScanIntervalSeconds int    `koanf:"scan_interval_seconds" toml:"scan_interval_seconds"`
}

// LastfmConfig gates the supplemented last.fm linking feature.
type LastfmConfig struct {
	Enabled   *bool  `koanf:"enabled" toml:"enabled,omitempty"`
	APIKey    string `koanf:"api_key" toml:"api_key,omitempty"`
	APISecret string `koanf:"api_secret" toml:"api_secret,omitempty"`
}

// GetLastfmConfig applies LastfmConfig's default (disabled) when Enabled is
// unset, following the teacher's Get*Config()-default-application pattern.
func (c *Config) GetLastfmConfig() LastfmConfig {
	cfg := c.Lastfm
	if cfg.Enabled == nil {
		f := false
		cfg.Enabled = &f
	}
	return cfg
}

// NotificationsConfig gates the supplemented DDNS updater.
type NotificationsConfig struct {
	DDNSEnabled *bool `koanf:"ddns_enabled" toml:"ddns_enabled,omitempty"`
}

// GetDDNSEnabled applies the default (enabled iff a URL is configured) when
// unset.
func (c *Config) GetDDNSEnabled() bool {
	if c.Notifications.DDNSEnabled != nil {
		return *c.Notifications.DDNSEnabled
	}
	return c.DDNSUpdateURL != ""
}

// Load reads the config file (xdg config dir, falling back to ./config.toml
// in the current directory, last one present wins, matching the teacher's
// layered-paths approach), validates it, hashes any initial_password
// entries and writes the result back to disk.
func Load() (*Config, error) {
	k := koanf.New(".")

	paths := getConfigPaths()
	loadedFrom := ""
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			loadedFrom = path
		}
	}

	cfg := &Config{
		AlbumArtPattern: DefaultAlbumArtPattern,
		Server: ServerConfig{
			Port:                5050,
			ScanIntervalSeconds: 3600,
			LogFormat:           "console",
		},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Server.DataDir == "" {
		dataDir, err := xdg.DataFile("polaris/collection.index")
		if err != nil {
			return nil, fmt.Errorf("resolve data directory: %w", err)
		}
		cfg.Server.DataDir = dataDir[:len(dataDir)-len("/collection.index")]
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	hashedAny := false
	for i, u := range cfg.Users {
		if u.InitialPassword == "" {
			continue
		}
		cfg.Users[i].HashedPassword = HashPassword(u.Name, u.InitialPassword)
		cfg.Users[i].InitialPassword = ""
		hashedAny = true
	}

	if hashedAny && loadedFrom != "" {
		if err := writeBack(loadedFrom, cfg); err != nil {
			return nil, fmt.Errorf("persist hashed passwords: %w", err)
		}
	}

	return cfg, nil
}

// validate enforces spec.md §6.1's "invalid regex or URI is a fatal config
// error" rule.
func validate(cfg *Config) error {
	if _, err := regexp.Compile(cfg.AlbumArtPattern); err != nil {
		return fmt.Errorf("invalid album_art_pattern: %w", err)
	}
	if cfg.DDNSUpdateURL != "" {
		if _, err := url.ParseRequestURI(cfg.DDNSUpdateURL); err != nil {
			return fmt.Errorf("invalid ddns_update_url: %w", err)
		}
	}
	return nil
}

// HashPassword derives a PBKDF2-HMAC-SHA256 hash of password, salted with
// the username (spec.md §6.1 names the algorithm but not the salt source;
// the per-user name gives distinct salts without a separate stored field).
// Exported so internal/userstore can authenticate login attempts against the
// same hash Load() writes back to disk.
func HashPassword(username, password string) string {
	salt := sha256.Sum256([]byte(username))
	derived := pbkdf2.Key([]byte(password), salt[:], pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(derived)
}

func getConfigPaths() []string {
	var paths []string
	if p, err := xdg.SearchConfigFile("polaris/config.toml"); err == nil {
		paths = append(paths, p)
	} else {
		paths = append(paths, xdg.ConfigHome+"/polaris/config.toml")
	}
	paths = append(paths, "config.toml")
	return paths
}

func writeBack(path string, cfg *Config) error {
	data, err := pelletoml.Marshal(*cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

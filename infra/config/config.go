package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application-level configuration.
type Config struct {
	APIURL            string // e.g. "https://habitica.com"
	UserID            string // Habitica user id, sent as x-api-user
	APIKey            string // Optional inline API token; TokenPath is used when empty
	TokenPath         string // Path to file containing the API token
	Group             string // Group whose chat is shown, "party" by default
	CachePath         string // SQLite message archive
	StatePath         string // UI state JSON
	LogPath           string
	LogLevel          string
	RenderWorkers     int
	Quiescence        time.Duration
	RequestsPerMinute int
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables.
//
//	GROUPCHAT_API_URL              Habitica base URL (default: https://habitica.com, https only)
//	GROUPCHAT_USER_ID              Habitica user id (required)
//	GROUPCHAT_API_KEY              API token (optional, overrides the token file)
//	GROUPCHAT_TOKEN                Path to token file (default: ~/.config/groupchat/token)
//	GROUPCHAT_GROUP                Group id (default: "party")
//	GROUPCHAT_CACHE_PATH           Message archive (default: ~/.config/groupchat/cache.db)
//	GROUPCHAT_STATE_PATH           UI state (default: ~/.config/groupchat/ui_state.json)
//	GROUPCHAT_LOG_PATH             Log file (default: dated file under ~/.config/groupchat/logs)
//	GROUPCHAT_LOG_LEVEL            debug, info, warn, error (default: info)
//	GROUPCHAT_RENDER_WORKERS       Concurrent markup renders (default: 4)
//	GROUPCHAT_QUIESCENCE_MS        Render batch settle window (default: 150)
//	GROUPCHAT_REQUESTS_PER_MINUTE  API pacing (default: 30, 0 disables)
func Load() (Config, error) {
	apiURL := os.Getenv("GROUPCHAT_API_URL")
	if apiURL == "" {
		apiURL = "https://habitica.com"
	}
	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid GROUPCHAT_API_URL: must be an absolute URL")
	}
	if parsed.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid GROUPCHAT_API_URL: only https is allowed")
	}
	apiURL = strings.TrimRight(parsed.String(), "/")

	userID := strings.TrimSpace(os.Getenv("GROUPCHAT_USER_ID"))
	if userID == "" {
		return Config{}, fmt.Errorf("GROUPCHAT_USER_ID is required")
	}

	dir, err := configDir()
	if err != nil {
		return Config{}, err
	}

	workers, err := intEnv("GROUPCHAT_RENDER_WORKERS", 4, 1)
	if err != nil {
		return Config{}, err
	}
	quiescenceMS, err := intEnv("GROUPCHAT_QUIESCENCE_MS", 150, 1)
	if err != nil {
		return Config{}, err
	}
	rpm, err := intEnv("GROUPCHAT_REQUESTS_PER_MINUTE", 30, 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIURL:            apiURL,
		UserID:            userID,
		APIKey:            strings.TrimSpace(os.Getenv("GROUPCHAT_API_KEY")),
		TokenPath:         envOr("GROUPCHAT_TOKEN", filepath.Join(dir, "token")),
		Group:             envOr("GROUPCHAT_GROUP", "party"),
		CachePath:         envOr("GROUPCHAT_CACHE_PATH", filepath.Join(dir, "cache.db")),
		StatePath:         envOr("GROUPCHAT_STATE_PATH", filepath.Join(dir, "ui_state.json")),
		LogPath:           os.Getenv("GROUPCHAT_LOG_PATH"),
		LogLevel:          os.Getenv("GROUPCHAT_LOG_LEVEL"),
		RenderWorkers:     workers,
		Quiescence:        time.Duration(quiescenceMS) * time.Millisecond,
		RequestsPerMinute: rpm,
	}, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "groupchat"), nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def, minVal int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minVal {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minVal)
	}
	return n, nil
}

package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrNoToken is returned when no API token is configured.
var ErrNoToken = errors.New("no API token configured")

// TokenProvider supplies the API token sent with every request.
type TokenProvider interface {
	AccessToken() (string, error)
}

// FileTokenProvider reads the API token from a file on disk. The token is
// read once and cached; a failed read is retried on the next call.
type FileTokenProvider struct {
	path string

	mu    sync.Mutex
	token string
}

// NewFileTokenProvider creates a TokenProvider that reads from the given file path.
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

// AccessToken returns the token, trimming whitespace.
func (f *FileTokenProvider) AccessToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token != "" {
		return f.token, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNoToken, f.path)
		}
		return "", fmt.Errorf("reading token from %s: %w", f.path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: token file %s is empty", ErrNoToken, f.path)
	}
	f.token = token
	return token, nil
}

// StaticTokenProvider serves a token supplied directly, e.g. from the environment.
type StaticTokenProvider string

// AccessToken returns the token.
func (s StaticTokenProvider) AccessToken() (string, error) {
	token := strings.TrimSpace(string(s))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// FirstOf returns a provider that tries each provider in order and returns
// the first token found.
func FirstOf(providers ...TokenProvider) TokenProvider {
	return chain(providers)
}

type chain []TokenProvider

func (c chain) AccessToken() (string, error) {
	errs := make([]error, 0, len(c))
	for _, p := range c {
		token, err := p.AccessToken()
		if err == nil {
			return token, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoToken
	}
	return "", errors.Join(errs...)
}

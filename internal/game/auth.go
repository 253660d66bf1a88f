package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sandertv/gophertunnel/minecraft/auth"
	"golang.org/x/oauth2"

	"github.com/erilali/mcbridge/internal/logger"
)

// requestLiveToken runs the interactive device-code login. Replaced in tests.
var requestLiveToken = auth.RequestLiveToken

// refreshTokenSource wraps a cached token so it is refreshed when expired.
var refreshTokenSource = auth.RefreshTokenSource

// cachedTokenSource persists every new token it hands out so the next start
// skips the device-code login.
type cachedTokenSource struct {
	mu     sync.Mutex
	src    oauth2.TokenSource
	path   string
	last   string
	logger *logger.Logger
}

func (c *cachedTokenSource) Token() (*oauth2.Token, error) {
	tok, err := c.src.Token()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.AccessToken != c.last {
		if err := writeToken(c.path, tok); err != nil {
			c.logger.Warnf("Failed to cache Xbox Live token: %v", err)
		} else {
			c.last = tok.AccessToken
		}
	}
	return tok, nil
}

// tokenCachePath returns the cache file for one bot identity.
func tokenCachePath(dir, username string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, username)
	return filepath.Join(dir, safe+".json")
}

// loadTokenSource returns a token source backed by the on-disk cache. With no
// cached token it falls back to the interactive login.
func loadTokenSource(dir, username string, log *logger.Logger) (oauth2.TokenSource, error) {
	path := tokenCachePath(dir, username)
	tok, err := readToken(path)
	switch {
	case err == nil:
		log.Infof("Using cached Xbox Live token from %s", path)
	case os.IsNotExist(err):
		log.Info("No cached Xbox Live token, starting device-code login")
		tok, err = requestLiveToken()
		if err != nil {
			return nil, fmt.Errorf("request live token: %w", err)
		}
	default:
		return nil, fmt.Errorf("read token cache %s: %w", path, err)
	}
	src := &cachedTokenSource{src: refreshTokenSource(tok), path: path, logger: log}
	if err := writeToken(path, tok); err != nil {
		log.Warnf("Failed to cache Xbox Live token: %v", err)
	} else {
		src.last = tok.AccessToken
	}
	return src, nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

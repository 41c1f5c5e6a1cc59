// Package cache provides short-lived caching for gateway responses, used
// only for the dialog directory listing. Message retrieval is never cached;
// each invocation reads live history.
//
// The default backend is JSON files scoped per resource and gateway URL
// with a 5-minute TTL. Setting FTG_REDIS_ADDR switches to a Redis backend.
// Disable caching entirely with FTG_NO_CACHE=1.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Backend reads and writes one cache key. Implementations are best-effort:
// Get reports a miss on any failure and Put never errors.
type Backend interface {
	Get(dst any) bool
	Put(items any)
	Clear()
}

// ForKey returns the configured backend for a resource key: Redis when
// FTG_REDIS_ADDR is set, the file store otherwise.
func ForKey(dir, key, baseURL string) Backend {
	if addr := os.Getenv("FTG_REDIS_ADDR"); addr != "" {
		return NewRedisStore(addr, key, baseURL, DefaultTTL)
	}
	return NewStore(dir, key, baseURL)
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// Store is the file backend: one JSON file per resource and gateway URL.
type Store struct {
	path string
	ttl  time.Duration
}

// NewStore creates a Store with the default 5-minute TTL.
func NewStore(dir, key, baseURL string) *Store {
	return NewStoreWithTTL(dir, key, baseURL, DefaultTTL)
}

// NewStoreWithTTL creates a Store with a custom TTL.
func NewStoreWithTTL(dir, key, baseURL string, ttl time.Duration) *Store {
	return &Store{
		path: filepath.Join(dir, fmt.Sprintf("%s_%s.json", sanitizeKey(key), urlSuffix(baseURL))),
		ttl:  ttl,
	}
}

// Get loads cached items into dst. Returns false on miss (no file, expired, disabled).
func (s *Store) Get(dst any) bool {
	if disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if time.Since(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *Store) Put(items any) {
	if disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{
		CachedAt: time.Now(),
		Items:    raw,
	})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}

	// Atomic-ish write: write temp then rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path)
}

// Clear removes this cache file.
func (s *Store) Clear() {
	_ = os.Remove(s.path)
}

// ClearAll removes every cache file in dir, regardless of key or gateway.
func ClearAll(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		_ = os.Remove(filepath.Join(dir, e.Name()))
	}
}

// DefaultDir returns the cache directory: FTG_CACHE_DIR when set, else the
// platform cache directory under "ftg".
func DefaultDir() (string, error) {
	if dir := os.Getenv("FTG_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "ftg"), nil
}

func disabled() bool {
	return os.Getenv("FTG_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	return key
}

func urlSuffix(baseURL string) string {
	hash := sha1.Sum([]byte(baseURL))
	return hex.EncodeToString(hash[:6])
}

// Package assets keeps the static asset set in a versioned in-memory cache.
// The version changes whenever the content of the set changes; clients
// holding an older version are told so they can reload.
package assets

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/starford/fieldaudit/internal/checksum"
)

// Update describes a cache version change.
type Update struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// Options configures a Cache.
type Options struct {
	Dir          string
	CacheName    string
	Files        []string // relative to Dir; empty means every regular file in Dir
	AllowedHosts []string
	Client       *http.Client
	Logger       *slog.Logger
	OnUpdate     func(Update)
}

type entry struct {
	data        []byte
	contentType string
}

type generation struct {
	version string
	files   map[string]entry
	fetched map[string]entry // runtime fetches, keyed by URL
}

// Cache is a versioned asset cache. Only the current generation is kept.
type Cache struct {
	opts   Options
	client *http.Client
	logger *slog.Logger

	mu  sync.RWMutex
	gen *generation
}

// New creates a cache and loads the initial generation.
func New(opts Options) (*Cache, error) {
	if opts.CacheName == "" {
		opts.CacheName = "fieldaudit"
	}
	c := &Cache{opts: opts, client: opts.Client, logger: opts.Logger}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.client == nil {
		c.client = newClient(c.opts.AllowedHosts)
	}
	if _, err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Version returns the current cache version.
func (c *Cache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen.version
}

// Reload reads the asset set from disk. When the content changed, the new
// generation replaces the old one and the update callback fires. A failed
// read keeps the current generation.
func (c *Cache) Reload() (bool, error) {
	files, err := c.readSet()
	if err != nil {
		return false, err
	}
	version := c.opts.CacheName + "-" + checksum.Short(manifest(files))

	c.mu.Lock()
	prev := ""
	if c.gen != nil {
		prev = c.gen.version
		if prev == version {
			c.mu.Unlock()
			return false, nil
		}
	}
	c.gen = &generation{version: version, files: files, fetched: make(map[string]entry)}
	c.mu.Unlock()

	if prev == "" {
		c.logger.Info("assets: cache ready", slog.String("version", version), slog.Int("files", len(files)))
		return true, nil
	}
	c.logger.Info("assets: cache updated", slog.String("previous", prev), slog.String("version", version))
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(Update{Previous: prev, Current: version})
	}
	return true, nil
}

func (c *Cache) readSet() (map[string]entry, error) {
	files := make(map[string]entry)
	if c.opts.Dir == "" {
		return files, nil
	}
	names := c.opts.Files
	if len(names) == 0 {
		des, err := os.ReadDir(c.opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("assets: read dir: %w", err)
		}
		for _, de := range des {
			if de.Type().IsRegular() && !strings.HasPrefix(de.Name(), ".") {
				names = append(names, de.Name())
			}
		}
	}
	for _, name := range names {
		name = filepath.ToSlash(filepath.Clean(name))
		if strings.HasPrefix(name, "../") || filepath.IsAbs(name) {
			return nil, fmt.Errorf("assets: %q escapes the asset dir", name)
		}
		data, err := os.ReadFile(filepath.Join(c.opts.Dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, fmt.Errorf("assets: read %s: %w", name, err)
		}
		files[name] = entry{data: data, contentType: contentType(name, data)}
	}
	return files, nil
}

// manifest is the hashed description of an asset set: names in order, each
// with the digest of its content.
func manifest(files map[string]entry) []byte {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	var b bytes.Buffer
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(' ')
		b.WriteString(checksum.Sum(files[n].data))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// Get returns a cached asset by its name within the set.
func (c *Cache) Get(name string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.gen.files[strings.TrimPrefix(name, "/")]
	return e.data, ok
}

// ServeHTTP serves cached assets by path, tagged with the cache version.
func (c *Cache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	c.mu.RLock()
	version := c.gen.version
	e, ok := c.gen.files[name]
	c.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	etag := `"` + version + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", e.contentType)
	_, _ = w.Write(e.data)
}

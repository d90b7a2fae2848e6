package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/fieldaudit/internal/apperr"
)

const maxAssetSize = 10 << 20 // 10 MB

// Fetch resolves an asset reference. Names within the set (optionally under
// "/assets/") are served from the cache. http(s) URLs on an allowed host are
// served from the cache when present, otherwise downloaded and cached when
// the response is 200 OK.
func (c *Cache) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		name := strings.TrimPrefix(strings.TrimPrefix(ref, "/"), "assets/")
		if data, ok := c.Get(name); ok {
			return data, nil
		}
		return nil, fmt.Errorf("assets: %s: %w", ref, apperr.ErrNotFound)
	}

	c.mu.RLock()
	gen := c.gen
	e, ok := gen.fetched[ref]
	c.mu.RUnlock()
	if ok {
		return e.data, nil
	}

	data, ct, err := c.download(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.gen == gen {
		gen.fetched[ref] = entry{data: data, contentType: ct}
	}
	c.mu.Unlock()
	c.logger.Debug("assets: cached remote", slog.String("url", ref), slog.Int("bytes", len(data)))
	return data, nil
}

func (c *Cache) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("assets: invalid URL: %w", err)
	}
	if err := checkHost(parsed.Hostname(), c.opts.AllowedHosts); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("assets: request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("assets: download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", fmt.Errorf("assets: %s: %w", rawURL, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("assets: download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("assets: read body: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, "", fmt.Errorf("assets: file too large: exceeds %d bytes", maxAssetSize)
	}
	ct := strings.Split(resp.Header.Get("Content-Type"), ";")[0]
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}

func newClient(allowed []string) *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects (max 5)")
			}
			return checkHost(req.URL.Hostname(), allowed)
		},
	}
}

var errHostNotAllowed = errors.New("host not allowed")

// checkHost admits only configured hosts and always rejects the cloud
// metadata address.
func checkHost(host string, allowed []string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("assets: blocked host: %s", host)
	}
	if ip := net.ParseIP(host); ip != nil && ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("assets: blocked host: cloud metadata address %s", host)
	}
	for _, a := range allowed {
		if strings.EqualFold(a, host) {
			return nil
		}
	}
	return fmt.Errorf("assets: %s: %w", host, errHostNotAllowed)
}

package wiki

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "WIKITRAIL_CACHE_DIR"
	cacheSubdir        = "wikitrail/fetch"
	apiCacheTTL        = time.Hour
	docCacheTTL        = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 90 * time.Second
)

// fetchCache keeps downloaded responses on disk so repeat visits along a
// trail do not refetch the same article or document. Entries revalidate
// with ETag/Last-Modified and interrupted document downloads resume with
// a Range request.
type fetchCache struct {
	dir    string
	client *http.Client
}

type fetchCacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

func newFetchCache(client *http.Client) (*fetchCache, error) {
	dir := os.Getenv(cacheEnvVar)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "wikitrail-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &fetchCache{dir: dir, client: client}, nil
}

func (c *fetchCache) Fetch(ctx context.Context, fetchURL string, ttl time.Duration) (string, error) {
	key := cacheKey(fetchURL)
	bodyPath, metaPath, partialPath := c.pathsFor(key, cacheExt(fetchURL))

	if info, err := os.Stat(bodyPath); err == nil && time.Since(info.ModTime()) < ttl && info.Size() > 0 {
		return bodyPath, nil
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(bodyPath)
	path, err := c.download(ctx, fetchURL, bodyPath, metaPath, partialPath, meta, info)
	if err == nil {
		return path, nil
	}
	if info != nil && info.Size() > 0 {
		return bodyPath, nil
	}
	return "", err
}

func (c *fetchCache) download(ctx context.Context, fetchURL, bodyPath, metaPath, partialPath string, meta fetchCacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			writeMeta(metaPath, meta)
			return bodyPath, nil
		}
		return c.download(ctx, fetchURL, bodyPath, metaPath, partialPath, fetchCacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, bodyPath, metaPath, partialPath, false)
	case http.StatusPartialContent:
		appendExisting := partialSize > 0
		return c.saveBody(resp, bodyPath, metaPath, partialPath, appendExisting)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("download failed: %s (%s)", resp.Status, string(body))
	}
}

func (c *fetchCache) saveBody(resp *http.Response, bodyPath, metaPath, partialPath string, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partialPath, bodyPath); err != nil {
		return "", err
	}

	meta := fetchCacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(bodyPath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	return bodyPath, nil
}

func (c *fetchCache) pathsFor(key, ext string) (string, string, string) {
	return filepath.Join(c.dir, key+ext), filepath.Join(c.dir, key+metaSuffix), filepath.Join(c.dir, key+partialSuffix)
}

func cacheKey(fetchURL string) string {
	sum := sha1.Sum([]byte(fetchURL))
	return hex.EncodeToString(sum[:])
}

func cacheExt(fetchURL string) string {
	if strings.HasSuffix(strings.ToLower(fetchURL), ".pdf") {
		return ".pdf"
	}
	return ".json"
}

func readMeta(path string) (fetchCacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fetchCacheMeta{}, err
	}
	var meta fetchCacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fetchCacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta fetchCacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// package imagecache guarantees that any record carrying a remotely-hosted
// image also carries a durable local copy.
//
// Provider URLs are time-limited (expiry on the order of hours), so every
// generated or remote image is downloaded into a flat local images directory
// exactly once.
package imagecache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/shared"
)

// CacheError is a typed download failure carrying the HTTP status (0 for
// transport-level failures).
type CacheError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *CacheError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cache download failed for %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("cache download failed for %s: %s", e.URL, e.Message)
}

// Cache manages the local images directory.
type Cache struct {
	dir        string
	httpClient *http.Client
	logger     *log.Logger
}

// New creates a Cache rooted at dir.
func New(dir string, client *http.Client, logger *log.Logger) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Cache{dir: dir, httpClient: client, logger: logger}
}

// Dir returns the local images directory.
func (c *Cache) Dir() string { return c.dir }

// EnsureStorageReady idempotently creates the images directory. Safe to call
// on every startup.
func (c *Cache) EnsureStorageReady() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	return nil
}

// DownloadAndCache downloads remoteURL into the images directory and returns
// the local path. If a file already exists at the resolved path it is
// returned without re-downloading; filenames are either caller-supplied or a
// freshly generated unique ID, so the operation is idempotent by
// construction. A non-2xx response raises a [*CacheError] and leaves no
// partial file behind.
func (c *Cache) DownloadAndCache(ctx context.Context, remoteURL, suggestedName string) (string, error) {
	if remoteURL == "" {
		return "", fmt.Errorf("%w: empty remote URL", shared.ErrInvalidInput)
	}

	name := suggestedName
	if name == "" {
		name = shared.GenerateID() + ".jpg"
	}
	localPath := filepath.Join(c.dir, name)

	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := c.EnsureStorageReady(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &CacheError{URL: remoteURL, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &CacheError{URL: remoteURL, StatusCode: resp.StatusCode}
	}

	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(localPath)
		return "", &CacheError{URL: remoteURL, Message: err.Error()}
	}

	if err := file.Close(); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to close cache file: %w", err)
	}

	return localPath, nil
}

// MigrateOne backfills the local copy for one article. No-op when the local
// path already resolves to a present file; otherwise downloads the remote
// URL if one exists. Failures are logged, not returned, so a single bad URL
// never blocks a batch: the article comes back unchanged.
func (c *Cache) MigrateOne(ctx context.Context, article models.Article) models.Article {
	if article.LocalImagePath != "" {
		if _, err := os.Stat(article.LocalImagePath); err == nil {
			return article
		}
	}

	if article.RemoteImageURL == "" {
		return article
	}

	localPath, err := c.DownloadAndCache(ctx, article.RemoteImageURL, "")
	if err != nil {
		c.logger.Warn("image migration failed", "article", article.ID, "err", err)
		return article
	}

	article.LocalImagePath = localPath
	return article
}

// MigrateAll applies [Cache.MigrateOne] to every article sequentially and
// returns the full set plus the number of articles whose local path changed.
// Sequential order is only for deterministic logging.
func (c *Cache) MigrateAll(ctx context.Context, articles []models.Article) ([]models.Article, int) {
	migrated := make([]models.Article, len(articles))
	changed := 0

	for i, article := range articles {
		migrated[i] = c.MigrateOne(ctx, article)
		if migrated[i].LocalImagePath != article.LocalImagePath {
			changed++
		}
	}

	return migrated, changed
}

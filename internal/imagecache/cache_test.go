package imagecache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/closet/internal/models"
)

func imageServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	}))
}

func TestCache(t *testing.T) {
	t.Run("Ensure Storage Ready Is Idempotent", func(t *testing.T) {
		cache := New(filepath.Join(t.TempDir(), "images"), nil, nil)
		if err := cache.EnsureStorageReady(); err != nil {
			t.Fatalf("first call failed: %v", err)
		}
		if err := cache.EnsureStorageReady(); err != nil {
			t.Fatalf("second call failed: %v", err)
		}
	})

	t.Run("Download And Cache", func(t *testing.T) {
		server := imageServer(t, nil)
		defer server.Close()

		cache := New(t.TempDir(), nil, nil)
		localPath, err := cache.DownloadAndCache(context.Background(), server.URL+"/a.jpg", "a.jpg")
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}

		contents, err := os.ReadFile(localPath)
		if err != nil {
			t.Fatalf("cached file unreadable: %v", err)
		}
		if len(contents) != 4 {
			t.Errorf("unexpected cached contents: %v", contents)
		}
	})

	t.Run("Existing File Is Not Re-Downloaded", func(t *testing.T) {
		hits := 0
		server := imageServer(t, &hits)
		defer server.Close()

		cache := New(t.TempDir(), nil, nil)
		first, err := cache.DownloadAndCache(context.Background(), server.URL, "a.jpg")
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}
		second, err := cache.DownloadAndCache(context.Background(), server.URL, "a.jpg")
		if err != nil {
			t.Fatalf("second download failed: %v", err)
		}

		if first != second {
			t.Errorf("expected the same path, got %s and %s", first, second)
		}
		if hits != 1 {
			t.Errorf("expected 1 server hit, got %d", hits)
		}
	})

	t.Run("Non-2xx Leaves No Partial File", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "expired", http.StatusForbidden)
		}))
		defer server.Close()

		dir := t.TempDir()
		cache := New(dir, nil, nil)
		_, err := cache.DownloadAndCache(context.Background(), server.URL, "a.jpg")

		var cacheErr *CacheError
		if !errors.As(err, &cacheErr) {
			t.Fatalf("expected CacheError, got %v", err)
		}
		if cacheErr.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", cacheErr.StatusCode)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(statErr) {
			t.Error("expected no file left behind on failure")
		}
	})
}

func TestMigrate(t *testing.T) {
	t.Run("MigrateOne Backfills Local Path", func(t *testing.T) {
		server := imageServer(t, nil)
		defer server.Close()

		cache := New(t.TempDir(), nil, nil)
		article := models.Article{ID: "a", RemoteImageURL: server.URL + "/a.jpg"}

		migrated := cache.MigrateOne(context.Background(), article)
		if migrated.LocalImagePath == "" {
			t.Fatal("expected a local path after migration")
		}
		if _, err := os.Stat(migrated.LocalImagePath); err != nil {
			t.Errorf("migrated file missing: %v", err)
		}
	})

	t.Run("MigrateOne Skips Present Local Copy", func(t *testing.T) {
		hits := 0
		server := imageServer(t, &hits)
		defer server.Close()

		dir := t.TempDir()
		localPath := filepath.Join(dir, "a.jpg")
		if err := os.WriteFile(localPath, []byte("cached"), 0644); err != nil {
			t.Fatalf("failed to seed local file: %v", err)
		}

		cache := New(dir, nil, nil)
		article := models.Article{ID: "a", LocalImagePath: localPath, RemoteImageURL: server.URL}

		migrated := cache.MigrateOne(context.Background(), article)
		if migrated.LocalImagePath != localPath {
			t.Errorf("expected untouched local path, got %s", migrated.LocalImagePath)
		}
		if hits != 0 {
			t.Errorf("expected no downloads, got %d", hits)
		}
	})

	t.Run("MigrateOne Absorbs Download Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		cache := New(t.TempDir(), nil, nil)
		article := models.Article{ID: "a", RemoteImageURL: server.URL}

		migrated := cache.MigrateOne(context.Background(), article)
		if migrated.LocalImagePath != "" {
			t.Error("failed migration must leave the article unchanged")
		}
	})

	t.Run("MigrateAll Counts Only Changes", func(t *testing.T) {
		server := imageServer(t, nil)
		defer server.Close()

		dir := t.TempDir()
		existing := filepath.Join(dir, "b.jpg")
		if err := os.WriteFile(existing, []byte("cached"), 0644); err != nil {
			t.Fatalf("failed to seed local file: %v", err)
		}

		cache := New(dir, nil, nil)
		articles := []models.Article{
			{ID: "a", RemoteImageURL: server.URL + "/a.jpg"},
			{ID: "b", LocalImagePath: existing, RemoteImageURL: server.URL + "/b.jpg"},
			{ID: "c"},
		}

		migrated, changed := cache.MigrateAll(context.Background(), articles)
		if changed != 1 {
			t.Errorf("expected 1 change, got %d", changed)
		}
		if len(migrated) != 3 {
			t.Fatalf("expected 3 articles back, got %d", len(migrated))
		}
		if migrated[0].LocalImagePath == "" {
			t.Error("expected first article migrated")
		}
		if migrated[2].LocalImagePath != "" {
			t.Error("imageless article must stay imageless")
		}
	})
}

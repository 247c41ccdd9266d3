package localmedia

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DirBucket publishes photos under the store's published dir and hands out URLs below baseURL.
type DirBucket struct {
	store   *Store
	baseURL string
}

func NewDirBucket(store *Store, baseURL string) *DirBucket {
	return &DirBucket{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *DirBucket) Upload(ctx context.Context, key string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create publish dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create published photo: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write published photo: %w", err)
	}
	return f.Close()
}

func (b *DirBucket) Delete(_ context.Context, key string) error {
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *DirBucket) PublicURL(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return b.baseURL + "/" + strings.Join(parts, "/")
}

func (b *DirBucket) Close() error { return nil }

func (b *DirBucket) path(key string) (string, error) {
	root := b.store.PublishedDir()
	full := filepath.Join(root, filepath.Clean("/"+key))
	rel, err := filepath.Rel(root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrOutsideRoot
	}
	return full, nil
}

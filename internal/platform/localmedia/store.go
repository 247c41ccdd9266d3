// Package localmedia reads photos captured on the device before upload and, when no bucket is
// configured, publishes them to disk.
package localmedia

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

const (
	uploadsDir   = "uploads"
	publishedDir = "published"
	LocalScheme  = "local:"
)

var (
	ErrNotReadable = errors.New("photo reference only exists on the capturing device")
	ErrOutsideRoot = errors.New("photo path escapes the media directory")
	ErrBadDataURI  = errors.New("malformed data URI")
)

type Store struct {
	root string
	log  *logger.Logger
}

func New(root string, baseLog *logger.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media dir: %w", err)
	}
	for _, sub := range []string{uploadsDir, publishedDir} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir: %w", err)
		}
	}
	return &Store{root: abs, log: baseLog.With("service", "LocalMedia")}, nil
}

func (s *Store) Root() string { return s.root }

// PublishedDir is the directory the HTTP layer serves for locally published photos.
func (s *Store) PublishedDir() string { return filepath.Join(s.root, publishedDir) }

// Save stores a device upload and returns the reference to put in the photo URL.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(filename)))
	f, err := os.Create(filepath.Join(s.root, uploadsDir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return LocalScheme + name, nil
}

// Open resolves a photo reference into its bytes. It understands data:, local:, file: and bare paths.
func (s *Store) Open(ref string) (io.ReadCloser, string, error) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return openDataURI(ref)
	case strings.HasPrefix(lower, "blob:"), strings.HasPrefix(lower, "content:"):
		return nil, "", ErrNotReadable
	case strings.HasPrefix(lower, LocalScheme):
		return s.openPath(filepath.Join(uploadsDir, strings.TrimPrefix(ref[len(LocalScheme):], "//")))
	case strings.HasPrefix(lower, "file:"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, "", fmt.Errorf("parse file url: %w", err)
		}
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		return s.openPath(p)
	default:
		return s.openPath(ref)
	}
}

func (s *Store) openPath(p string) (io.ReadCloser, string, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, "", err
	}
	return f, mime.TypeByExtension(filepath.Ext(full)), nil
}

// resolve confines p to the media root; absolute paths must already sit inside it.
func (s *Store) resolve(p string) (string, error) {
	var full string
	if filepath.IsAbs(p) {
		full = filepath.Clean(p)
	} else {
		full = filepath.Join(s.root, filepath.Clean("/"+p))
	}
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

func openDataURI(ref string) (io.ReadCloser, string, error) {
	header, payload, ok := strings.Cut(ref[len("data:"):], ",")
	if !ok {
		return nil, "", ErrBadDataURI
	}
	contentType := header
	isBase64 := false
	if i := strings.Index(header, ";"); i >= 0 {
		contentType = header[:i]
		isBase64 = strings.Contains(strings.ToLower(header[i:]), ";base64")
	}
	var raw []byte
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadDataURI, err)
		}
		raw = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadDataURI, err)
		}
		raw = []byte(s)
	}
	return io.NopCloser(bytes.NewReader(raw)), contentType, nil
}

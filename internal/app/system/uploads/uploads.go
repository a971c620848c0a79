// Package uploads validates and stores listing images.
//
// Files are written to an afero filesystem (the OS under a base directory in
// production, an in-memory filesystem in tests) and served back under a URL
// prefix. Content type is decided by sniffing the bytes, never by trusting
// the client's filename or Content-Type header.
package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Defaults used when Config leaves a limit at zero.
const (
	DefaultMaxFiles = 10
	DefaultMaxBytes = 5 << 20
)

var (
	ErrNotImage = errors.New("file is not a supported image (jpeg, png, gif, webp)")
	ErrTooLarge = errors.New("file is too large")
	ErrTooMany  = errors.New("too many files")
)

// allowed maps the accepted sniffed MIME types to the stored file extension.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Config holds upload limits and the public URL prefix.
type Config struct {
	MaxFiles  int
	MaxBytes  int64
	URLPrefix string // e.g. "/uploads"
}

// SavedFile describes one stored image.
type SavedFile struct {
	URL         string
	Path        string
	ContentType string
	Size        int64
}

// Store saves images to fs.
type Store struct {
	fs  afero.Fs
	cfg Config
}

// New returns a Store over fs.
func New(fs afero.Fs, cfg Config) *Store {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	cfg.URLPrefix = "/" + strings.Trim(cfg.URLPrefix, "/")
	return &Store{fs: fs, cfg: cfg}
}

// NewOS returns a Store rooted at dir on the local disk, creating dir.
func NewOS(dir string, cfg Config) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), cfg), nil
}

// Limits returns the effective configuration.
func (s *Store) Limits() Config { return s.cfg }

// Save validates r as an image and writes it under /listings/YYYY/MM/.
func (s *Store) Save(r io.Reader) (SavedFile, error) {
	buf, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return SavedFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > s.cfg.MaxBytes {
		return SavedFile{}, ErrTooLarge
	}

	mt := mimetype.Detect(buf)
	ext := ""
	for m, e := range allowed {
		if mt.Is(m) {
			ext = e
			break
		}
	}
	if ext == "" {
		return SavedFile{}, ErrNotImage
	}

	now := time.Now().UTC()
	p := path.Join("/listings", fmt.Sprintf("%04d/%02d", now.Year(), now.Month()), uuid.NewString()+ext)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("create upload dir: %w", err)
	}
	if err := afero.WriteReader(s.fs, p, bytes.NewReader(buf)); err != nil {
		return SavedFile{}, fmt.Errorf("write upload: %w", err)
	}

	return SavedFile{
		URL:         s.cfg.URLPrefix + p,
		Path:        p,
		ContentType: mt.String(),
		Size:        int64(len(buf)),
	}, nil
}

// SaveMultipart saves every file in files. It checks the count and declared
// sizes before reading anything. If any file fails, files already written
// by this call are removed.
func (s *Store) SaveMultipart(files []*multipart.FileHeader) ([]SavedFile, error) {
	if len(files) > s.cfg.MaxFiles {
		return nil, ErrTooMany
	}
	for _, fh := range files {
		if fh.Size > s.cfg.MaxBytes {
			return nil, ErrTooLarge
		}
	}

	saved := make([]SavedFile, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.removeAll(saved)
			return nil, fmt.Errorf("open upload: %w", err)
		}
		sf, err := s.Save(f)
		f.Close()
		if err != nil {
			s.removeAll(saved)
			return nil, err
		}
		saved = append(saved, sf)
	}
	return saved, nil
}

func (s *Store) removeAll(files []SavedFile) {
	for _, f := range files {
		_ = s.fs.Remove(f.Path)
	}
}

// Owns reports whether url points into this store.
func (s *Store) Owns(url string) bool {
	return strings.HasPrefix(url, s.cfg.URLPrefix+"/")
}

// Remove deletes the file behind url. Unknown URLs are ignored.
func (s *Store) Remove(url string) error {
	if !s.Owns(url) {
		return nil
	}
	p := path.Clean("/" + strings.TrimPrefix(url, s.cfg.URLPrefix+"/"))
	if !strings.HasPrefix(p, "/listings/") {
		return nil
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// Handler serves stored files. Mount it with the URL prefix stripped.
// Directory listings are not served.
func (s *Store) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		files.ServeHTTP(w, r)
	})
}

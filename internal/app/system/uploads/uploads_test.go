package uploads

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStore(cfg Config) (*Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return New(fs, cfg), fs
}

func TestSave_PNG(t *testing.T) {
	s, fs := newStore(Config{URLPrefix: "/uploads"})

	sf, err := s.Save(bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	require.Equal(t, "image/png", sf.ContentType)
	require.True(t, strings.HasPrefix(sf.URL, "/uploads/listings/"))
	require.True(t, strings.HasSuffix(sf.Path, ".png"))

	ok, err := afero.Exists(fs, sf.Path)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, s.Owns(sf.URL))
}

func TestSave_RejectsNonImage(t *testing.T) {
	s, _ := newStore(Config{})
	_, err := s.Save(strings.NewReader("#!/bin/sh\necho pwned\n"))
	require.ErrorIs(t, err, ErrNotImage)
}

func TestSave_RejectsTooLarge(t *testing.T) {
	s, _ := newStore(Config{MaxBytes: 16})
	_, err := s.Save(bytes.NewReader(pngBytes(t)))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestNew_Defaults(t *testing.T) {
	s, _ := newStore(Config{URLPrefix: "uploads/"})
	cfg := s.Limits()
	require.Equal(t, DefaultMaxFiles, cfg.MaxFiles)
	require.Equal(t, int64(DefaultMaxBytes), cfg.MaxBytes)
	require.Equal(t, "/uploads", cfg.URLPrefix)
}

func multipartFiles(t *testing.T, payloads ...[]byte) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, p := range payloads {
		fw, err := mw.CreateFormFile("images", "photo"+string(rune('a'+i))+".png")
		require.NoError(t, err)
		_, err = fw.Write(p)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["images"]
}

func TestSaveMultipart(t *testing.T) {
	s, _ := newStore(Config{URLPrefix: "/uploads"})
	img := pngBytes(t)

	saved, err := s.SaveMultipart(multipartFiles(t, img, img))
	require.NoError(t, err)
	require.Len(t, saved, 2)
	require.NotEqual(t, saved[0].URL, saved[1].URL)
}

func TestSaveMultipart_TooMany(t *testing.T) {
	s, _ := newStore(Config{MaxFiles: 1})
	img := pngBytes(t)

	_, err := s.SaveMultipart(multipartFiles(t, img, img))
	require.ErrorIs(t, err, ErrTooMany)
}

func TestSaveMultipart_RollsBackOnBadFile(t *testing.T) {
	s, fs := newStore(Config{URLPrefix: "/uploads"})

	_, err := s.SaveMultipart(multipartFiles(t, pngBytes(t), []byte("plain text, not an image")))
	require.ErrorIs(t, err, ErrNotImage)

	var count int
	err = afero.Walk(fs, "/listings", func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, count, "first file should have been removed")
}

func TestRemove(t *testing.T) {
	s, fs := newStore(Config{URLPrefix: "/uploads"})
	sf, err := s.Save(bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)

	require.NoError(t, s.Remove(sf.URL))
	ok, _ := afero.Exists(fs, sf.Path)
	require.False(t, ok)

	require.NoError(t, s.Remove(sf.URL), "removing twice is fine")
	require.NoError(t, s.Remove("https://elsewhere.example/img.png"))
	require.NoError(t, s.Remove("/uploads/../../etc/passwd"))
}

func TestHandler(t *testing.T) {
	s, _ := newStore(Config{URLPrefix: "/uploads"})
	img := pngBytes(t)
	sf, err := s.Save(bytes.NewReader(img))
	require.NoError(t, err)

	h := http.StripPrefix("/uploads", s.Handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, sf.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, img, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/listings/", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/listings/missing.png", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

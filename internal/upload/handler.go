// Package upload stores admin file uploads on local disk and returns their public URL.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
)

// URLPrefix is the path uploaded files are served under.
const URLPrefix = "/static/uploads/"

const (
	formField       = "file"
	maxMemoryBytes  = 8 << 20
	timestampLayout = "20060102150405"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces name to a safe base name of ASCII letters, digits, '_', '.', '-'.
// Directory parts are dropped, whitespace becomes '_', and leading dots are removed so the
// result is never hidden or a traversal. Returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = name[strings.LastIndex(name, "/")+1:]
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Handler serves POST /api/upload.
type Handler struct {
	dir      string
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

// NewHandler writes uploads into dir and builds URLs from baseURL.
func NewHandler(dir, baseURL string, maxBytes int64) *Handler {
	return &Handler{
		dir:      dir,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Upload saves the multipart "file" field as <timestamp>_<sanitized name>.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", mbe.Limit))
			return
		}
		httpx.Error(w, http.StatusBadRequest, "No file part")
		return
	}
	file, header, err := r.FormFile(formField)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		httpx.Error(w, http.StatusBadRequest, "No selected file")
		return
	}
	name := SanitizeFilename(header.Filename)
	if name == "" {
		name = "upload"
	}
	name = h.now().Format(timestampLayout) + "_" + name

	if err := h.save(name, file); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("file", name).Msg("upload failed")
		httpx.Error(w, http.StatusInternalServerError, "could not store file")
		return
	}
	logging.Ctx(r.Context()).Info().Str("file", name).Int64("bytes", header.Size).Msg("file uploaded")
	httpx.JSON(w, http.StatusOK, map[string]string{"url": h.baseURL + URLPrefix + name})
}

func (h *Handler) save(name string, src io.Reader) error {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(h.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return err
	}
	return dst.Close()
}

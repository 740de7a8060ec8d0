package site

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// UploadsRoute is the URL prefix under which stored images are served.
const UploadsRoute = "/uploads"

// ImageStore names and removes uploaded images on local disk.
type ImageStore struct {
	dir string
	now func() time.Time
}

// NewImageStore returns an ImageStore writing into dir.
func NewImageStore(dir string) *ImageStore {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	return &ImageStore{dir: filepath.Clean(dir), now: time.Now}
}

// Dir returns the directory holding stored images.
func (s *ImageStore) Dir() string { return s.dir }

// EnsureDir creates the upload directory when missing.
func (s *ImageStore) EnsureDir() error {
	if errMkdir := os.MkdirAll(s.dir, 0o755); errMkdir != nil {
		return fmt.Errorf("site: create upload dir: %w", errMkdir)
	}
	return nil
}

// Allocate picks the on-disk path and public URL for an upload named original.
// Names are "<unix millis>-<file name>".
func (s *ImageStore) Allocate(original string) (diskPath, publicURL string) {
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), safeFileName(original))
	return filepath.Join(s.dir, name), UploadsRoute + "/" + name
}

// Remove deletes the file behind publicURL. Failures are logged and ignored.
func (s *ImageStore) Remove(publicURL *string) {
	if s == nil || publicURL == nil {
		return
	}
	name := path.Base(strings.TrimSpace(*publicURL))
	if name == "" || name == "." || name == "/" || name == ".." {
		return
	}
	target := filepath.Join(s.dir, name)
	if errRemove := os.Remove(target); errRemove != nil && !os.IsNotExist(errRemove) {
		log.WithError(errRemove).WithField("path", target).Warn("site: remove image failed")
	}
}

func safeFileName(original string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(original), "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "image"
	}
	return name
}

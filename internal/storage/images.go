package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ValidationError reports a client-correctable problem with an upload
// (bad type, oversized file, unsafe name).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ErrPathOutsideRoot is returned when a filename resolves, after
// cleaning, to a path outside the store's root directory.
var ErrPathOutsideRoot = errors.New("path escapes storage root")

var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore stores uploaded receipt images under a single root
// directory. Every name it accepts or hands out must resolve inside that
// root; the guard applies to both writes and the read path used by
// extraction.
type ImageStore struct {
	root    string
	maxSize int64
	logger  *zap.Logger
}

func NewImageStore(root string, maxSize int64, logger *zap.Logger) (*ImageStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &ImageStore{
		root:    absRoot,
		maxSize: maxSize,
		logger:  logger,
	}, nil
}

// Store validates and writes one uploaded image, returning the unique
// filename it was stored under. On a name collision an incrementing
// numeric suffix is appended until the create succeeds; O_EXCL keeps
// concurrent uploads of the same name from clobbering each other.
func (s *ImageStore) Store(filename, mimeType string, size int64, r io.Reader) (string, error) {
	ext, ok := allowedMimeTypes[strings.ToLower(mimeType)]
	if !ok {
		return "", &ValidationError{Reason: fmt.Sprintf("unsupported image type %q (allowed: jpeg, png, gif, webp)", mimeType)}
	}
	if size > s.maxSize {
		return "", &ValidationError{Reason: fmt.Sprintf("file too large: %d bytes (max %d)", size, s.maxSize)}
	}

	stem := sanitizeStem(filename)
	if stem == "" {
		stem = uuid.NewString()
	}

	for i := 0; ; i++ {
		name := stem + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}

		path, err := s.resolve(name)
		if err != nil {
			return "", err
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}

		written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
		if err == nil && written > s.maxSize {
			err = &ValidationError{Reason: fmt.Sprintf("file too large: exceeds %d bytes", s.maxSize)}
		}
		if err != nil {
			os.Remove(path)
			return "", err
		}

		s.logger.Info("Image stored",
			zap.String("filename", name),
			zap.Int64("size", written),
		)
		return name, nil
	}
}

// Read returns the bytes of a previously stored image along with its
// media type, derived from the stored extension.
func (s *ImageStore) Read(storedFilename string) ([]byte, string, error) {
	path, err := s.resolve(storedFilename)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	return data, mimeTypeForExt(filepath.Ext(storedFilename)), nil
}

// resolve joins name onto the root and rejects anything that escapes it.
func (s *ImageStore) resolve(name string) (string, error) {
	path := filepath.Join(s.root, name)
	cleaned, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if cleaned != s.root && !strings.HasPrefix(cleaned, s.root+string(filepath.Separator)) {
		return "", ErrPathOutsideRoot
	}
	// Stored names are flat: no subdirectories inside the root.
	if filepath.Dir(cleaned) != s.root {
		return "", ErrPathOutsideRoot
	}
	return cleaned, nil
}

// sanitizeStem reduces an uploaded filename to a flat, path-safe stem.
func sanitizeStem(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '.':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._-")
}

func mimeTypeForExt(ext string) string {
	for mime, e := range allowedMimeTypes {
		if e == strings.ToLower(ext) {
			return mime
		}
	}
	if strings.EqualFold(ext, ".jpeg") {
		return "image/jpeg"
	}
	return "application/octet-stream"
}

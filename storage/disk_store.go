package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidMediaType is returned for uploads that are not an allowed image type.
	ErrInvalidMediaType = errors.New("invalid file type, only JPEG, PNG and GIF are allowed")
	// ErrPayloadTooLarge is returned for uploads exceeding the configured size ceiling.
	ErrPayloadTooLarge = errors.New("file exceeds the maximum allowed size")
)

// allowedImageTypes maps permitted sniffed content types to a fallback extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

const avatarSubdir = "avatars"

// Upload is one pending file upload. Open yields a fresh reader over the
// file's bytes so the store decides when and whether to consume them.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromFileHeader wraps a multipart file header as an Upload.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// FromFileHeaders wraps a slice of multipart file headers.
func FromFileHeaders(fhs []*multipart.FileHeader) []Upload {
	uploads := make([]Upload, 0, len(fhs))
	for _, fh := range fhs {
		uploads = append(uploads, FromFileHeader(fh))
	}
	return uploads
}

// Blob describes one stored blob for the reconciliation sweep.
type Blob struct {
	Ref     string
	ModTime time.Time
}

// DiskStore keeps uploaded image blobs on the local filesystem under a
// public-servable directory. References are URL paths under urlPrefix and
// are stored verbatim on image records.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, avatarSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Dir returns the root directory blobs are stored under.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save persists a build image upload and returns its URL reference.
func (s *DiskStore) Save(up Upload, limit int64) (string, error) {
	return s.save(up, limit, "")
}

// SaveAvatar persists an avatar upload under the avatars subdirectory.
func (s *DiskStore) SaveAvatar(up Upload, limit int64) (string, error) {
	return s.save(up, limit, avatarSubdir)
}

func (s *DiskStore) save(up Upload, limit int64, subdir string) (string, error) {
	if up.Size > limit {
		return "", ErrPayloadTooLarge
	}

	src, err := up.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	// Sniff the real content type from the first 512 bytes instead of
	// trusting the client-declared MIME type.
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	fallbackExt, ok := allowedImageTypes[contentType]
	if !ok {
		return "", ErrInvalidMediaType
	}

	ext := strings.ToLower(filepath.Ext(up.Name))
	if ext == "" {
		ext = fallbackExt
	}
	filename := uuid.New().String() + ext
	dst := filepath.Join(s.dir, subdir, filename)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", dst, err)
	}

	// The sniffed head was already consumed, stitch it back in front of the
	// remaining bytes. LimitReader caps writers that lied about Size.
	_, err = io.Copy(out, io.LimitReader(io.MultiReader(bytes.NewReader(head), src), limit+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write file %s: %w", dst, err)
	}

	if info, err := os.Stat(dst); err == nil && info.Size() > limit {
		os.Remove(dst)
		return "", ErrPayloadTooLarge
	}

	return path.Join(s.urlPrefix, subdir, filename), nil
}

// Remove deletes the blob behind a reference. A missing file is treated as
// success so cleanup can be retried safely.
func (s *DiskStore) Remove(ref string) error {
	p, err := s.blobPath(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", p, err)
	}
	return nil
}

// Blobs lists the build image blobs (top-level only, avatars excluded) for
// the reconciliation sweep.
func (s *DiskStore) Blobs() ([]Blob, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	blobs := make([]Blob, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		blobs = append(blobs, Blob{
			Ref:     path.Join(s.urlPrefix, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return blobs, nil
}

// blobPath resolves a URL reference back to a filesystem path, rejecting
// references outside the store's directory.
func (s *DiskStore) blobPath(ref string) (string, error) {
	rel, ok := strings.CutPrefix(ref, s.urlPrefix+"/")
	if !ok {
		return "", fmt.Errorf("reference %q is not under %s", ref, s.urlPrefix)
	}
	rel = filepath.Clean(filepath.FromSlash(rel))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid blob reference %q", ref)
	}
	return filepath.Join(s.dir, rel), nil
}

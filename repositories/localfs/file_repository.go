package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/upb/file-upload-api/models"
	"github.com/upb/file-upload-api/repositories"
	"go.uber.org/zap"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// FileRepository implements repositories.FileRepository on a flat local directory
type FileRepository struct {
	root   string
	logger *zap.Logger
}

// NewFileRepository creates a repository rooted at dir. The directory is
// created lazily on the first save.
func NewFileRepository(dir string, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		root:   dir,
		logger: logger,
	}
}

var _ repositories.FileRepository = (*FileRepository)(nil)

// Root returns the storage directory
func (r *FileRepository) Root() string {
	return r.root
}

// Save writes data to <root>/<uid>_<filename>, truncating an existing file.
// The write is not atomic; a crash mid-write can leave a partial file.
func (r *FileRepository) Save(ctx context.Context, uid, filename string, data []byte) (*models.StoredFile, error) {
	if err := models.ValidateOwner(uid); err != nil {
		return nil, fmt.Errorf("%w: %q", err, uid)
	}

	// MkdirAll is a no-op when the directory already exists, including when
	// a concurrent request created it first.
	if err := os.MkdirAll(r.root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(r.root, models.StoredName(uid, filename))
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	stored := &models.StoredFile{
		UserID:   uid,
		Filename: filename,
		Path:     path,
		Size:     int64(len(data)),
	}
	if info, err := os.Stat(path); err == nil {
		stored.UploadedAt = creationTime(info)
	}

	r.logger.Debug("file stored",
		zap.String("uid", uid),
		zap.String("path", path),
		zap.Int64("size", stored.Size))
	return stored, nil
}

// ListByUser scans the root for entries prefixed with "<uid>_"
func (r *FileRepository) ListByUser(ctx context.Context, uid string) ([]*models.StoredFile, error) {
	if err := models.ValidateOwner(uid); err != nil {
		return nil, fmt.Errorf("%w: %q", err, uid)
	}

	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.StoredFile{}, nil
		}
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	files := make([]*models.StoredFile, 0)
	for _, entry := range entries {
		name, ok := models.OriginalName(uid, entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		files = append(files, &models.StoredFile{
			UserID:     uid,
			Filename:   name,
			Path:       filepath.Join(r.root, entry.Name()),
			Size:       info.Size(),
			UploadedAt: creationTime(info),
		})
	}

	return files, nil
}

// Check verifies the root is a directory, or can become one
func (r *FileRepository) Check(ctx context.Context) error {
	info, err := os.Stat(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat upload directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload path %s is not a directory", r.root)
	}
	return nil
}

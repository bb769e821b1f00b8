package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/upb/file-upload-api/models"
	"github.com/upb/file-upload-api/repositories"
	"github.com/upb/file-upload-api/services"
	"go.uber.org/zap"
)

// DefaultAllowedExtensions are the file types accepted for upload
var DefaultAllowedExtensions = []string{".txt", ".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"}

// Config holds upload limits
type Config struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Upload is a single file submitted by a user
type Upload struct {
	Filename string
	// Size is the size declared by the client, checked before reading Content
	Size    int64
	Content io.Reader
}

// Service validates uploads and stores them per user
type Service struct {
	repo       repositories.FileRepository
	logger     *zap.Logger
	maxBytes   int64
	allowed    map[string]struct{}
	allowedStr string
}

// NewService creates a new file Service
func NewService(repo repositories.FileRepository, logger *zap.Logger, config Config) *Service {
	exts := config.AllowedExtensions
	if len(exts) == 0 {
		exts = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return &Service{
		repo:       repo,
		logger:     logger,
		maxBytes:   config.MaxUploadBytes,
		allowed:    allowed,
		allowedStr: strings.Join(exts, ", "),
	}
}

// MaxUploadBytes returns the per-file size limit
func (s *Service) MaxUploadBytes() int64 {
	return s.maxBytes
}

// TooLargeError is the error returned for files over the size limit
func (s *Service) TooLargeError() error {
	return services.NewDomainError(services.ErrorTypePayloadTooLarge,
		fmt.Sprintf("File too large. Maximum size is %s", formatLimit(s.maxBytes)), nil)
}

// Upload validates and stores a file for uid. Validation failures return
// before anything touches the disk.
func (s *Service) Upload(ctx context.Context, uid string, upload Upload) (*models.StoredFile, error) {
	if upload.Size > s.maxBytes {
		return nil, s.TooLargeError()
	}

	if _, ok := s.allowed[Extension(upload.Filename)]; !ok {
		return nil, services.NewDomainError(services.ErrorTypeInvalidRequest,
			fmt.Sprintf("File type not allowed. Allowed types: %s", s.allowedStr), nil)
	}

	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return nil, services.WrapInternal("Error saving file", err)
	}

	stored, err := s.repo.Save(ctx, uid, upload.Filename, data)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOwner) {
			return nil, services.WrapInvalidRequest("Invalid user id", err)
		}
		return nil, services.WrapInternal("Error saving file", err)
	}

	s.logger.Info("file uploaded",
		zap.String("uid", uid),
		zap.String("filename", upload.Filename),
		zap.Int64("size", stored.Size))
	return stored, nil
}

// List returns the files uid has uploaded
func (s *Service) List(ctx context.Context, uid string) ([]*models.StoredFile, error) {
	files, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOwner) {
			return nil, services.WrapInvalidRequest("Invalid user id", err)
		}
		return nil, services.WrapInternal("Error listing files", err)
	}
	return files, nil
}

// Extension returns the lower-cased extension of name. Leading dots are
// part of the name, so ".env" has no extension.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimLeft(name, ".")))
}

func formatLimit(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

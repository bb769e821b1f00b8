package repositories

import (
	"context"

	"github.com/upb/file-upload-api/models"
)

// FileRepository handles uploaded file storage
type FileRepository interface {
	// Save writes data as the user's file, replacing any file of the same name
	Save(ctx context.Context, uid, filename string, data []byte) (*models.StoredFile, error)

	// ListByUser returns every file owned by uid, in directory order.
	// A missing storage root yields an empty list.
	ListByUser(ctx context.Context, uid string) ([]*models.StoredFile, error)

	// Check reports whether the storage root is usable
	Check(ctx context.Context) error
}

// Repositories holds all repository instances
type Repositories struct {
	Files FileRepository
}

package progress

import (
	"context"

	"github.com/upb/file-upload-api/models"
	"go.uber.org/zap"
)

// Service acknowledges learning progress. It keeps nothing; the record is
// returned to the caller as-is.
type Service struct {
	logger *zap.Logger
}

// NewService creates a new progress Service
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Save acknowledges a progress snapshot for the user.
// The error return is part of the contract for a future persistent backend.
func (s *Service) Save(ctx context.Context, uid, email string, req *models.ProgressRequest) (*models.ProgressRecord, error) {
	s.logger.Debug("progress received",
		zap.String("uid", uid),
		zap.Int("keys", len(req.Progress)))

	return &models.ProgressRecord{
		UserUID:   uid,
		UserEmail: email,
		Progress:  req.Progress,
		Timestamp: req.Timestamp,
	}, nil
}

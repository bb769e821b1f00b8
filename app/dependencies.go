package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/file-upload-api/config"
	"github.com/upb/file-upload-api/firebase"
	"github.com/upb/file-upload-api/middleware"
	"github.com/upb/file-upload-api/models"
	"github.com/upb/file-upload-api/repositories"
	"github.com/upb/file-upload-api/repositories/localfs"
	"github.com/upb/file-upload-api/services/files"
	"github.com/upb/file-upload-api/services/progress"
	"github.com/upb/file-upload-api/services/testgen"
	"go.uber.org/zap"
)

// ErrAuthNotConfigured is returned for every token when no Firebase project is configured
var ErrAuthNotConfigured = errors.New("authentication not configured")

// FileService uploads and lists a user's files
type FileService interface {
	Upload(ctx context.Context, uid string, upload files.Upload) (*models.StoredFile, error)
	List(ctx context.Context, uid string) ([]*models.StoredFile, error)
	MaxUploadBytes() int64
	TooLargeError() error
}

// ProgressService acknowledges progress snapshots
type ProgressService interface {
	Save(ctx context.Context, uid, email string, req *models.ProgressRequest) (*models.ProgressRecord, error)
}

// TestGenerationService synthesizes tests
type TestGenerationService interface {
	Generate(ctx context.Context, uid, email string, req *models.TestGenerationRequest) (*models.GeneratedTest, error)
}

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection; it is built once
// at startup and passed to every handler.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Repositories
	Repositories *repositories.Repositories

	// Services
	Files    FileService
	Progress ProgressService
	Tests    TestGenerationService

	// Auth
	Verifier       middleware.TokenVerifier
	AuthConfigured bool
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initRepositories(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	deps.initServices(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes the upload store
func (d *Dependencies) initRepositories(ctx context.Context, cfg *config.Config) error {
	store := localfs.NewFileRepository(cfg.Storage.UploadDir, d.Logger)
	if err := store.Check(ctx); err != nil {
		return err
	}

	d.Repositories = &repositories.Repositories{Files: store}

	d.Logger.Info("file storage initialized",
		zap.String("upload_dir", store.Root()),
		zap.Int64("max_upload_bytes", cfg.Storage.MaxUploadBytes))
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Files = files.NewService(d.Repositories.Files, d.Logger, files.Config{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	d.Progress = progress.NewService(d.Logger)
	d.Tests = testgen.NewService(d.Logger)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	projectID, err := firebase.ResolveProjectID(cfg.Firebase.ProjectID, cfg.Firebase.ServiceAccountKeyPath)
	if err != nil {
		d.Logger.Warn("firebase not configured, authenticated routes will reject every token",
			zap.String("service_account_key_path", cfg.Firebase.ServiceAccountKeyPath),
			zap.Error(err))
		// Use reject-all verifier so protected routes return 401
		d.SetVerifier(&rejectAllVerifier{})
		d.AuthConfigured = false
		return
	}

	validator := firebase.NewValidator(firebase.Config{
		ProjectID: projectID,
		JWKSURL:   cfg.Firebase.JWKSURL,
		CacheTTL:  cfg.Firebase.KeysCacheTTL,
	})
	d.SetVerifier(&firebaseVerifierAdapter{validator: validator})
	d.Logger.Info("firebase token verification initialized", zap.String("project_id", projectID))
}

// SetVerifier replaces the token verifier and rebuilds the auth middleware
func (d *Dependencies) SetVerifier(verifier middleware.TokenVerifier) {
	d.Verifier = verifier
	d.AuthConfigured = true
	d.AuthMiddleware = middleware.NewAuthMiddleware(verifier, d.Logger)
}

// firebaseVerifierAdapter adapts firebase.Validator to middleware.TokenVerifier
type firebaseVerifierAdapter struct {
	validator *firebase.Validator
}

func (a *firebaseVerifierAdapter) VerifyToken(ctx context.Context, token string) (*middleware.Claims, error) {
	parsed, err := a.validator.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UID:            parsed.UID,
		Email:          parsed.Email,
		EmailVerified:  parsed.EmailVerified,
		Name:           parsed.Name,
		SignInProvider: parsed.SignInProvider,
		IssuedAt:       parsed.IssuedAt,
		ExpiresAt:      parsed.ExpiresAt,
	}, nil
}

// rejectAllVerifier rejects all tokens (used when Firebase is not configured)
type rejectAllVerifier struct{}

func (*rejectAllVerifier) VerifyToken(context.Context, string) (*middleware.Claims, error) {
	return nil, ErrAuthNotConfigured
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	if d.Logger == nil {
		return nil
	}
	d.Logger.Info("shutting down dependencies")

	// Sync errors on stdout/stderr are expected on some platforms
	_ = d.Logger.Sync()
	return nil
}

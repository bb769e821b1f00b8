package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/file-upload-api/app"
	"github.com/upb/file-upload-api/config"
	"github.com/upb/file-upload-api/middleware"
	"github.com/upb/file-upload-api/models"
	"github.com/upb/file-upload-api/repositories"
	"github.com/upb/file-upload-api/repositories/localfs"
	"github.com/upb/file-upload-api/services/files"
	"github.com/upb/file-upload-api/services/progress"
	"github.com/upb/file-upload-api/services/testgen"
	"go.uber.org/zap"
)

// MockProgressService is a mock implementation of app.ProgressService
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) Save(ctx context.Context, uid, email string, req *models.ProgressRequest) (*models.ProgressRecord, error) {
	args := m.Called(ctx, uid, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressRecord), args.Error(1)
}

// MockTestGenerationService is a mock implementation of app.TestGenerationService
type MockTestGenerationService struct {
	mock.Mock
}

func (m *MockTestGenerationService) Generate(ctx context.Context, uid, email string, req *models.TestGenerationRequest) (*models.GeneratedTest, error) {
	args := m.Called(ctx, uid, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedTest), args.Error(1)
}

// newTestDeps wires real services over a temporary upload directory
func newTestDeps(t *testing.T, maxUploadBytes int64) (*app.Dependencies, string) {
	t.Helper()
	logger := zap.NewNop()
	root := filepath.Join(t.TempDir(), "uploads")
	store := localfs.NewFileRepository(root, logger)

	deps := &app.Dependencies{
		Config: &config.Config{
			Storage: config.StorageConfig{UploadDir: root, MaxUploadBytes: maxUploadBytes},
		},
		Logger:       logger,
		Repositories: &repositories.Repositories{Files: store},
		Files:        files.NewService(store, logger, files.Config{MaxUploadBytes: maxUploadBytes}),
		Progress:     progress.NewService(logger),
		Tests:        testgen.NewService(logger),
	}
	return deps, root
}

func withClaims(req *http.Request, uid, email string) *http.Request {
	claims := &middleware.Claims{UID: uid, Email: email, EmailVerified: email != ""}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newUploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&response))
	return response
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	detail, _ := decodeBody(t, w.Body)["detail"].(string)
	return detail
}

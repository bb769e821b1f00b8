package handlers

import (
	"net/http"

	"github.com/upb/file-upload-api/app"
	"github.com/upb/file-upload-api/middleware"
	"github.com/upb/file-upload-api/models"
	"github.com/upb/file-upload-api/utils"
	"go.uber.org/zap"
)

const (
	rootMessage          = "File Upload API is running"
	progressSavedMessage = "Progress saved successfully"
	testGeneratedMessage = "Test generated successfully"
)

// MeResponse describes the authenticated caller
type MeResponse struct {
	Email         *string `json:"email"`
	UID           string  `json:"uid"`
	EmailVerified bool    `json:"email_verified"`
}

// SaveProgressResponse acknowledges a progress snapshot
type SaveProgressResponse struct {
	Message   string                 `json:"message"`
	UserEmail *string                `json:"user_email"`
	UserUID   string                 `json:"user_uid"`
	Progress  map[string]interface{} `json:"progress"`
	Timestamp *string                `json:"timestamp"`
}

// GenerateTestResponse carries a generated test
type GenerateTestResponse struct {
	Message       string            `json:"message"`
	UserEmail     *string           `json:"user_email"`
	UserUID       string            `json:"user_uid"`
	Topic         string            `json:"topic"`
	Difficulty    string            `json:"difficulty"`
	QuestionCount int               `json:"question_count"`
	Questions     []models.Question `json:"questions"`
}

// RootHandler reports that the service is up
func RootHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, utils.MessageResponse{Message: rootMessage})
	}
}

// MeHandler returns the identity of the caller
func MeHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, deps.Logger)
		if !ok {
			return
		}

		_ = utils.WriteOK(w, MeResponse{
			Email:         optionalString(claims.Email),
			UID:           claims.UID,
			EmailVerified: claims.EmailVerified,
		})
	}
}

// SaveProgressHandler acknowledges a learning progress snapshot
func SaveProgressHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverInternal(w, deps.Logger, "Error saving progress")

		claims, ok := requireClaims(w, r, deps.Logger)
		if !ok {
			return
		}

		var req models.ProgressRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			HandleValidationError(w, err, deps.Logger)
			return
		}

		record, err := deps.Progress.Save(r.Context(), claims.UID, claims.Email, &req)
		if err != nil {
			HandleServiceError(w, wrapInternal("Error saving progress", err), deps.Logger)
			return
		}

		_ = utils.WriteOK(w, SaveProgressResponse{
			Message:   progressSavedMessage,
			UserEmail: optionalString(record.UserEmail),
			UserUID:   record.UserUID,
			Progress:  record.Progress,
			Timestamp: record.Timestamp,
		})
	}
}

// GenerateTestHandler returns a mock test for a topic
func GenerateTestHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverInternal(w, deps.Logger, "Error generating test")

		claims, ok := requireClaims(w, r, deps.Logger)
		if !ok {
			return
		}

		var req models.TestGenerationRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			HandleValidationError(w, err, deps.Logger)
			return
		}

		test, err := deps.Tests.Generate(r.Context(), claims.UID, claims.Email, &req)
		if err != nil {
			HandleServiceError(w, wrapInternal("Error generating test", err), deps.Logger)
			return
		}

		questions := test.Questions
		if questions == nil {
			questions = []models.Question{}
		}

		_ = utils.WriteOK(w, GenerateTestResponse{
			Message:       testGeneratedMessage,
			UserEmail:     optionalString(test.UserEmail),
			UserUID:       test.UserUID,
			Topic:         test.Topic,
			Difficulty:    test.Difficulty,
			QuestionCount: test.QuestionCount,
			Questions:     questions,
		})
	}
}

// requireClaims fetches the verified claims set by the auth middleware
func requireClaims(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*middleware.Claims, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil || claims.UID == "" {
		logger.Error("claims not found in context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		_ = utils.WriteUnauthorized(w, middleware.MissingAuthHeaderDetail)
		return nil, false
	}
	return claims, true
}

// optionalString renders an empty string as JSON null
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

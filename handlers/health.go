package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/file-upload-api/app"
	"github.com/upb/file-upload-api/utils"
	"go.uber.org/zap"
)

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReadinessCheck reports whether token verification is configured and the
// upload directory is usable
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		response := ReadinessResponse{
			Status: "ready",
			Checks: map[string]string{},
		}

		// Check storage
		if deps.Repositories == nil || deps.Repositories.Files == nil {
			response.Status = "not_ready"
			response.Checks["storage"] = "not_initialized"
		} else if err := deps.Repositories.Files.Check(ctx); err != nil {
			response.Status = "not_ready"
			response.Checks["storage"] = "unhealthy"
			deps.Logger.Error("storage health check failed", zap.Error(err))
		} else {
			response.Checks["storage"] = "healthy"
		}

		// Check auth
		if deps.AuthConfigured {
			response.Checks["auth"] = "configured"
		} else {
			response.Status = "not_ready"
			response.Checks["auth"] = "not_configured"
		}

		status := http.StatusOK
		if response.Status != "ready" {
			status = http.StatusServiceUnavailable
		}
		if err := utils.WriteJSON(w, status, response); err != nil {
			deps.Logger.Error("failed to write readiness response", zap.Error(err))
		}
	}
}

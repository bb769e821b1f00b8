package handlers

import (
	"fmt"
	"net/http"

	"github.com/upb/file-upload-api/services"
	"github.com/upb/file-upload-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to {"detail": ...} responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	detail := services.GetErrorDetail(err)

	var writeErr error
	switch {
	case services.IsInvalidRequestError(err):
		writeErr = utils.WriteBadRequest(w, detail)

	case services.IsUnauthenticatedError(err):
		writeErr = utils.WriteUnauthorized(w, detail)

	case services.IsPayloadTooLargeError(err):
		writeErr = utils.WritePayloadTooLarge(w, detail)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, detail)

	default:
		// Unknown error type - log and return internal error
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, detail)
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles errors from decoding and validating a request body
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	logger.Debug("request validation failed", zap.Error(err))
	if err := utils.WriteBadRequest(w, err.Error()); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// recoverInternal turns a panic in the handler into a 500 with the given
// detail prefix. It must be deferred.
func recoverInternal(w http.ResponseWriter, logger *zap.Logger, prefix string) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		panic(rec)
	}

	err := fmt.Errorf("%v", rec)
	logger.Error("handler panic recovered", zap.String("operation", prefix), zap.Error(err), zap.Stack("stack"))
	HandleServiceError(w, services.WrapInternal(prefix, err), logger)
}

// wrapInternal keeps domain errors as they are and reports anything else as
// an internal error with the given detail prefix
func wrapInternal(prefix string, err error) error {
	if services.GetErrorType(err) != "" {
		return err
	}
	return services.WrapInternal(prefix, err)
}

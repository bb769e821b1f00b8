package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/upb/file-upload-api/app"
	"github.com/upb/file-upload-api/services"
	"github.com/upb/file-upload-api/services/files"
	"github.com/upb/file-upload-api/utils"
	"go.uber.org/zap"
)

const (
	uploadedMessage = "File uploaded successfully"
	uploadFormField = "file"

	// multipartOverhead is the room left for boundaries and part headers
	// on top of the file size limit
	multipartOverhead = 1 << 20

	// multipartMemory is how much of a form is buffered before spilling to temp files
	multipartMemory = 32 << 20
)

// UploadResponse describes a stored upload
type UploadResponse struct {
	Message   string  `json:"message"`
	Filename  string  `json:"filename"`
	UserEmail *string `json:"user_email"`
	FilePath  string  `json:"file_path"`
	FileSize  int64   `json:"file_size"`
}

// FileInfo is one entry of a file listing
type FileInfo struct {
	Filename   string  `json:"filename"`
	Size       int64   `json:"size"`
	UploadedAt float64 `json:"uploaded_at"`
}

// ListFilesResponse lists the caller's files
type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
}

// UploadHandler stores a multipart file upload for the caller
func UploadHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverInternal(w, deps.Logger, "Error saving file")
		ctx := r.Context()

		claims, ok := requireClaims(w, r, deps.Logger)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, deps.Files.MaxUploadBytes()+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			if isBodyTooLarge(err) {
				HandleServiceError(w, deps.Files.TooLargeError(), deps.Logger)
				return
			}
			HandleServiceError(w, services.WrapInvalidRequest("Invalid multipart form", err), deps.Logger)
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				deps.Logger.Warn("failed to remove multipart temp files", zap.Error(err))
			}
		}()

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				HandleServiceError(w, services.ErrMissingFile, deps.Logger)
				return
			}
			HandleServiceError(w, services.WrapInvalidRequest("Invalid file part", err), deps.Logger)
			return
		}
		defer file.Close()

		stored, err := deps.Files.Upload(ctx, claims.UID, files.Upload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		})
		if err != nil {
			HandleServiceError(w, wrapInternal("Error saving file", err), deps.Logger)
			return
		}

		_ = utils.WriteOK(w, UploadResponse{
			Message:   uploadedMessage,
			Filename:  stored.Filename,
			UserEmail: optionalString(claims.Email),
			FilePath:  stored.Path,
			FileSize:  stored.Size,
		})
	}
}

// ListFilesHandler lists the files the caller has uploaded
func ListFilesHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverInternal(w, deps.Logger, "Error listing files")

		claims, ok := requireClaims(w, r, deps.Logger)
		if !ok {
			return
		}

		stored, err := deps.Files.List(r.Context(), claims.UID)
		if err != nil {
			HandleServiceError(w, wrapInternal("Error listing files", err), deps.Logger)
			return
		}

		response := ListFilesResponse{Files: make([]FileInfo, 0, len(stored))}
		for _, f := range stored {
			response.Files = append(response.Files, FileInfo{
				Filename:   f.Filename,
				Size:       f.Size,
				UploadedAt: f.UploadedAtUnix(),
			})
		}

		_ = utils.WriteOK(w, response)
	}
}

// isBodyTooLarge reports whether err came from the request body cap.
// Older multipart readers flatten the error, so the message is checked too.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

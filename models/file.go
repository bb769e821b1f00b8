package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidOwner is returned for a uid that cannot be used as a filename prefix
var ErrInvalidOwner = errors.New("invalid owner id")

// StoredFile is an uploaded file as it exists on disk.
// Its identity is the stored name "<uid>_<filename>".
type StoredFile struct {
	UserID     string
	Filename   string
	Path       string
	Size       int64
	UploadedAt time.Time
}

// StoredName returns the on-disk name for a user's file
func StoredName(uid, filename string) string {
	return OwnerPrefix(uid) + filename
}

// ValidateOwner rejects uids that would let a stored name escape the upload
// directory or fail to attribute the file to its owner
func ValidateOwner(uid string) error {
	if uid == "" || strings.ContainsAny(uid, "/\\\x00") {
		return ErrInvalidOwner
	}
	return nil
}

// OwnerPrefix returns the filename prefix that scopes files to a user
func OwnerPrefix(uid string) string {
	return uid + "_"
}

// OriginalName strips the owner prefix from a stored name.
// ok is false when the stored name does not belong to uid.
func OriginalName(uid, storedName string) (string, bool) {
	return strings.CutPrefix(storedName, OwnerPrefix(uid))
}

// UploadedAtUnix returns UploadedAt as fractional seconds since the epoch
func (f *StoredFile) UploadedAtUnix() float64 {
	return float64(f.UploadedAt.UnixNano()) / float64(time.Second)
}

package models

// ProgressRequest is the body of POST /save-progress
type ProgressRequest struct {
	Progress  map[string]interface{} `json:"progress" validate:"required"`
	Timestamp *string                `json:"timestamp,omitempty"`
}

// ProgressRecord is the acknowledged progress snapshot for a user.
// Nothing is persisted; the record only lives for the response.
type ProgressRecord struct {
	UserUID   string
	UserEmail string
	Progress  map[string]interface{}
	Timestamp *string
}

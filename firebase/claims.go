package firebase

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")

	// ErrInvalidServiceAccount is returned when the service account file can't be used
	ErrInvalidServiceAccount = errors.New("invalid service account")
)

// Claims represents the claims Firebase puts in an ID token
type Claims struct {
	jwt.RegisteredClaims
	AuthTime      int64        `json:"auth_time"`
	UserID        string       `json:"user_id"`
	Email         string       `json:"email"`
	EmailVerified bool         `json:"email_verified"`
	Name          string       `json:"name"`
	Picture       string       `json:"picture"`
	Firebase      FirebaseInfo `json:"firebase"`
}

// FirebaseInfo is the provider-specific "firebase" claim
type FirebaseInfo struct {
	SignInProvider string `json:"sign_in_provider"`
	Tenant         string `json:"tenant,omitempty"`
}

// ParsedClaims represents parsed and validated claims
type ParsedClaims struct {
	UID            string
	Email          string
	EmailVerified  bool
	Name           string
	SignInProvider string
	AuthTime       time.Time
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// parseClaims converts Claims to ParsedClaims. The uid is the token subject.
func parseClaims(claims *Claims) (*ParsedClaims, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	if len(claims.Subject) > maxUIDLength {
		return nil, fmt.Errorf("%w: sub longer than %d characters", ErrInvalidToken, maxUIDLength)
	}

	parsed := &ParsedClaims{
		UID:            claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		Name:           claims.Name,
		SignInProvider: claims.Firebase.SignInProvider,
	}

	if claims.AuthTime > 0 {
		parsed.AuthTime = time.Unix(claims.AuthTime, 0)
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}

	return parsed, nil
}

// ServiceAccount holds the fields of a service account key file this
// service reads. The private key is never loaded.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

// LoadServiceAccount reads a Google service account key file
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServiceAccount, err)
	}

	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServiceAccount, err)
	}
	if sa.Type != "" && sa.Type != "service_account" {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrInvalidServiceAccount, sa.Type)
	}
	if sa.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is empty", ErrInvalidServiceAccount)
	}

	return &sa, nil
}

// ResolveProjectID returns explicitID when set, otherwise the project_id of
// the service account file at keyPath.
func ResolveProjectID(explicitID, keyPath string) (string, error) {
	if explicitID != "" {
		return explicitID, nil
	}
	if keyPath == "" {
		return "", fmt.Errorf("%w: no project id or service account key path", ErrInvalidServiceAccount)
	}

	sa, err := LoadServiceAccount(keyPath)
	if err != nil {
		return "", err
	}
	return sa.ProjectID, nil
}

package firebase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaims(t *testing.T) {
	now := time.Unix(1700000000, 0)

	parsed, err := parseClaims(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		AuthTime: now.Unix(),
		Email:    "a@b.c",
		Firebase: FirebaseInfo{SignInProvider: "google.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-123", parsed.UID)
	assert.Equal(t, "a@b.c", parsed.Email)
	assert.Equal(t, "google.com", parsed.SignInProvider)
	assert.True(t, parsed.AuthTime.Equal(now))
	assert.True(t, parsed.IssuedAt.Equal(now))
	assert.True(t, parsed.ExpiresAt.Equal(now.Add(time.Hour)))

	// Email is optional (anonymous and phone sign-in)
	parsed, err = parseClaims(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "anon"}})
	require.NoError(t, err)
	assert.Empty(t, parsed.Email)
	assert.True(t, parsed.AuthTime.IsZero())
}

func writeServiceAccount(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serviceAccountKey.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServiceAccount(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantProject string
		wantErr     bool
	}{
		{
			name:        "valid key file",
			content:     `{"type":"service_account","project_id":"demo-project","client_email":"svc@demo-project.iam.gserviceaccount.com","private_key":"ignored"}`,
			wantProject: "demo-project",
		},
		{
			name:    "missing project id",
			content: `{"type":"service_account"}`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			content: `{"type":"authorized_user","project_id":"demo-project"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: `project_id=demo`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sa, err := LoadServiceAccount(writeServiceAccount(t, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidServiceAccount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProject, sa.ProjectID)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadServiceAccount(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, ErrInvalidServiceAccount)
	})
}

func TestResolveProjectID(t *testing.T) {
	keyPath := writeServiceAccount(t, `{"type":"service_account","project_id":"from-file"}`)

	id, err := ResolveProjectID("explicit", keyPath)
	require.NoError(t, err)
	assert.Equal(t, "explicit", id)

	id, err = ResolveProjectID("", keyPath)
	require.NoError(t, err)
	assert.Equal(t, "from-file", id)

	_, err = ResolveProjectID("", "")
	assert.ErrorIs(t, err, ErrInvalidServiceAccount)

	_, err = ResolveProjectID("", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

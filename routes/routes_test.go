package routes

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/file-upload-api/app"
	"github.com/upb/file-upload-api/config"
	"github.com/upb/file-upload-api/firebase"
	"github.com/upb/file-upload-api/middleware"
	"go.uber.org/zap/zaptest"
)

// fakeVerifier accepts tokens of the form "token-<uid>"
type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(_ context.Context, token string) (*middleware.Claims, error) {
	uid, ok := strings.CutPrefix(token, "token-")
	if !ok || uid == "" {
		return nil, errors.New("token is malformed")
	}
	return &middleware.Claims{UID: uid, Email: uid + "@example.com", EmailVerified: true}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: 8000},
		Firebase: config.FirebaseConfig{
			ServiceAccountKeyPath: filepath.Join(t.TempDir(), "missing.json"),
		},
		Storage: config.StorageConfig{
			UploadDir:      filepath.Join(t.TempDir(), "uploads"),
			MaxUploadBytes: config.DefaultMaxUploadBytes,
		},
		CORS:          config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Observability: config.ObservabilityConfig{LogLevel: "debug", LogFormat: "json"},
	}
}

type testServer struct {
	handler http.Handler
	cfg     *config.Config
	deps    *app.Dependencies
}

func newTestServer(t *testing.T, verifier middleware.TokenVerifier) *testServer {
	t.Helper()
	cfg := testConfig(t)
	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	if verifier != nil {
		deps.SetVerifier(verifier)
	}
	return &testServer{handler: SetupRoutes(deps), cfg: cfg, deps: deps}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func authed(req *http.Request, uid string) *http.Request {
	req.Header.Set("Authorization", "Bearer token-"+uid)
	return req
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t, fakeVerifier{})

	w := srv.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"File Upload API is running"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Content-Type"))

	w = srv.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, w.Body.String())

	w = srv.do(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"detail":"Method Not Allowed"}`, w.Body.String())
}

func TestAuthenticatedRoutesRequireBearer(t *testing.T) {
	srv := newTestServer(t, fakeVerifier{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodPost, "/save-progress"},
		{http.MethodPost, "/generate-test"},
		{http.MethodPost, "/upload"},
		{http.MethodGet, "/files"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := srv.do(httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Missing or invalid Authorization header", decode(t, w)["detail"])

			req := httptest.NewRequest(route.method, route.path, nil)
			req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			w = srv.do(req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			req = httptest.NewRequest(route.method, route.path, nil)
			req.Header.Set("Authorization", "Bearer garbage")
			w = srv.do(req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Invalid token: token is malformed", decode(t, w)["detail"])
		})
	}
}

func TestUnconfiguredAuthRejectsEveryToken(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(authed(httptest.NewRequest(http.MethodGet, "/me", nil), "u1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token: authentication not configured", decode(t, w)["detail"])

	w = srv.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadAndListFlow(t *testing.T) {
	srv := newTestServer(t, fakeVerifier{})
	uploadDir := srv.cfg.Storage.UploadDir

	// No directory yet
	w := srv.do(authed(httptest.NewRequest(http.MethodGet, "/files", nil), "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"files":[]}`, w.Body.String())

	// notes.txt for u1
	w = srv.do(authed(uploadRequest(t, "notes.txt", []byte("hello")), "u1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "notes.txt", body["filename"])
	assert.Equal(t, float64(5), body["file_size"])
	assert.Equal(t, "u1@example.com", body["user_email"])
	content, err := os.ReadFile(filepath.Join(uploadDir, "u1_notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	// Overwrite keeps the latest bytes
	w = srv.do(authed(uploadRequest(t, "notes.txt", []byte("bye")), "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	content, err = os.ReadFile(filepath.Join(uploadDir, "u1_notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bye", string(content))

	// Another user's file is never listed for u1
	w = srv.do(authed(uploadRequest(t, "secret.pdf", []byte("%PDF")), "u2"))
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(authed(httptest.NewRequest(http.MethodGet, "/files", nil), "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	files := decode(t, w)["files"].([]interface{})
	require.Len(t, files, 1)
	entry := files[0].(map[string]interface{})
	assert.Equal(t, "notes.txt", entry["filename"])
	assert.Equal(t, float64(3), entry["size"])
	assert.IsType(t, float64(0), entry["uploaded_at"])

	// Rejected uploads write nothing
	w = srv.do(authed(uploadRequest(t, "run.exe", []byte("MZ")), "u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, err = os.Stat(filepath.Join(uploadDir, "u1_run.exe"))
	assert.True(t, os.IsNotExist(err))

	oversized := bytes.Repeat([]byte("a"), int(config.DefaultMaxUploadBytes)+1)
	w = srv.do(authed(uploadRequest(t, "big.txt", oversized), "u1"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "File too large. Maximum size is 10MB", decode(t, w)["detail"])
	_, err = os.Stat(filepath.Join(uploadDir, "u1_big.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestMockEndpoints(t *testing.T) {
	srv := newTestServer(t, fakeVerifier{})

	w := srv.do(authed(httptest.NewRequest(http.MethodGet, "/me", nil), "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"u1@example.com","uid":"u1","email_verified":true}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/generate-test",
		strings.NewReader(`{"topic":"photosynthesis","difficulty":"medium","question_count":3}`))
	w = srv.do(authed(req, "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 3)
	for _, q := range questions {
		assert.Contains(t, q.(map[string]interface{})["question"], "photosynthesis")
	}

	req = httptest.NewRequest(http.MethodPost, "/save-progress", strings.NewReader(`{"progress":{"unit":2}}`))
	w = srv.do(authed(req, "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Progress saved successfully", decode(t, w)["message"])
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, fakeVerifier{})

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := srv.do(req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = srv.do(req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestFirebaseTokensEndToEnd(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(firebase.JWKS{Keys: []firebase.JWK{{
			Kid: "k1",
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(privateKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(privateKey.E)).Bytes()),
		}}})
	}))
	defer jwks.Close()

	cfg := testConfig(t)
	cfg.Firebase.ProjectID = "demo-project"
	cfg.Firebase.JWKSURL = jwks.URL
	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	handler := SetupRoutes(deps)

	uid := uuid.New().String()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &firebase.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/demo-project",
			Subject:   uid,
			Audience:  jwt.ClaimStrings{"demo-project"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		AuthTime: now.Unix(),
		Email:    "student@example.com",
	})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, uid, body["uid"])
	assert.Equal(t, "student@example.com", body["email"])
	assert.Equal(t, false, body["email_verified"])

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

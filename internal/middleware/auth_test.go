package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/qrpay/pkg/auth"
)

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     "test-secret-key",
		Issuer:     "test",
		Expiration: 1 * time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(auth.Subject(r.Context())))
}

func serveAuth(h http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_SkipPaths(t *testing.T) {
	h := AuthMiddleware(newTestJWTService(t), "/healthz", "/readyz")(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, serveAuth(h, "/healthz", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serveAuth(h, "/api/v1/qr/cze", "").Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	h := AuthMiddleware(newTestJWTService(t))(http.HandlerFunc(okHandler))

	tests := []struct {
		name, header, want string
	}{
		{"missing header", "", `{"error":"missing authorization header"}`},
		{"invalid format", "Basic dXNlcjpwYXNz", `{"error":"invalid authorization format"}`},
		{"invalid token", "Bearer not-a-jwt", `{"error":"invalid token"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveAuth(h, "/api/v1/qr/cze", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.GenerateToken("erp", []string{auth.ScopeEncode})
	require.NoError(t, err)

	h := AuthMiddleware(svc)(http.HandlerFunc(okHandler))
	rec := serveAuth(h, "/api/v1/qr/cze", "bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "erp", rec.Body.String())
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	h := AuthMiddleware(nil)(http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusOK, serveAuth(h, "/api/v1/qr/cze", "").Code)
}

func TestRequireScope(t *testing.T) {
	svc := newTestJWTService(t)
	h := AuthMiddleware(svc)(RequireScope(auth.ScopeDecode, okHandler))

	encodeOnly, err := svc.GenerateToken("erp", []string{auth.ScopeEncode})
	require.NoError(t, err)
	rec := serveAuth(h, "/api/v1/qr/svk/decode", "Bearer "+encodeOnly)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"token lacks scope qr:decode"}`, rec.Body.String())

	decoder, err := svc.GenerateToken("erp", []string{auth.ScopeDecode})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serveAuth(h, "/api/v1/qr/svk/decode", "Bearer "+decoder).Code)

	anonymous := RequireScope(auth.ScopeDecode, okHandler)
	assert.Equal(t, http.StatusOK, serveAuth(anonymous, "/api/v1/qr/svk/decode", "").Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-key"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseToken_Claims(t *testing.T) {
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()
	auth := NewJWTAuth(testSecret)

	tests := []struct {
		name    string
		claims  jwt.MapClaims
		secret  string
		wantErr bool
	}{
		{"sub claim", jwt.MapClaims{"sub": userID.String(), "exp": exp}, testSecret, false},
		{"user_id fallback", jwt.MapClaims{"user_id": userID.String(), "exp": exp}, testSecret, false},
		{"wrong secret", jwt.MapClaims{"sub": userID.String(), "exp": exp}, "other", true},
		{"expired", jwt.MapClaims{"sub": userID.String(), "exp": time.Now().Add(-time.Minute).Unix()}, testSecret, true},
		{"non-uuid subject", jwt.MapClaims{"sub": "anon", "exp": exp}, testSecret, true},
		{"no subject", jwt.MapClaims{"exp": exp}, testSecret, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := auth.ParseToken(signToken(t, tc.claims, tc.secret))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

func TestMiddleware_RejectsMissingAndExpired(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(), "exp": time.Now().Add(-time.Minute).Unix(),
	}, testSecret))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "TOKEN_EXPIRED")
}

func TestOptional(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	userID := uuid.New()

	var seen uuid.UUID
	h := auth.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/pulse-chat", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
		"sub": userID.String(), "exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, userID, seen)

	req = httptest.NewRequest(http.MethodPost, "/api/pulse-chat", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, uuid.Nil, seen)
	assert.Equal(t, http.StatusOK, rr.Code)
}

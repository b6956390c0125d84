package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	tok, err := tokens.Generate(42, "host@example.com")
	require.NoError(t, err)

	claims, err := tokens.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.HostID)
	assert.Equal(t, "host@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	good, err := tokens.Generate(1, "a@example.com")
	require.NoError(t, err)

	other, err := NewTokens("other", time.Hour).Generate(1, "a@example.com")
	require.NoError(t, err)

	expired := NewTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Generate(1, "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{name: "valid", token: good, ok: true},
		{name: "wrong secret", token: other},
		{name: "expired", token: old},
		{name: "garbage", token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Validate(tt.token)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tok, err := tokens.Generate(7, "h@example.com")
	require.NoError(t, err)

	var seen *Claims
	h := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetHost(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized, body: `{"error":"unauthorized"}`},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized, body: `{"error":"unauthorized"}`},
		{name: "invalid", header: "Bearer nope", status: http.StatusUnauthorized, body: `{"error":"invalid token"}`},
		{name: "valid", header: "Bearer " + tok, status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, int64(7), seen.HostID)
			} else {
				assert.Nil(t, seen)
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, h http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k-123"})
	require.NoError(t, err)
	return NewVerifier(c)
}

func TestVerifier_OK(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, verifyPath, r.URL.Path)
		assert.Equal(t, "k-123", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok", body["token"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":" u-1 ","email":"ana@example.com","first_name":" Ana "}`))
	})

	claims, err := v.Verify(context.Background(), " tok ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "Ana", claims.Name)
}

func TestVerifier_Unauthorized(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := v.Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestVerifier_MissingUserID(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":"x@example.com"}`))
	})

	_, err := v.Verify(context.Background(), "tok")
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestVerifier_EmptyTokenAndNotConfigured(t *testing.T) {
	_, err := NewVerifier(nil).Verify(context.Background(), "tok")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.False(t, c.IsConfigured())

	_, err = NewVerifier(c).Verify(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrTokenEmpty))
}

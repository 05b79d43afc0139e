package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RelativePathAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ping", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":"` + in["msg"] + `"}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/", time.Second)
	require.NoError(t, err)

	var out struct {
		Echo string `json:"echo"`
	}
	err = c.DoJSON(context.Background(), http.MethodPost, "v1/ping",
		map[string]string{"X-Api-Key": "k"}, map[string]string{"msg": "hola"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hola", out.Echo)
}

func TestDoJSON_Non2xxReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(time.Second)
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	require.Error(t, err)

	status, ok := StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDoJSON_RelativePathWithoutBaseURL(t *testing.T) {
	c := New(0)
	err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoBaseURL)

	err = c.DoJSON(context.Background(), http.MethodGet, "  ", nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyURL)

	var nilClient *Client
	assert.ErrorIs(t, nilClient.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil), ErrNilClient)
}

func TestNewWithBaseURL_RejectsScheme(t *testing.T) {
	_, err := NewWithBaseURL("ftp://example.com", time.Second)
	assert.Error(t, err)
}

func TestWithRetries_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(time.Second).WithRetries(2, time.Millisecond)
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil))
	assert.Equal(t, 2, calls)
}

func TestDoJSON_LargeBodies(t *testing.T) {
	big := strings.Repeat("x", 2<<20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(big))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"blob": big})
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, 5*time.Second)
	require.NoError(t, err)

	var out struct {
		Blob string `json:"blob"`
	}
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "/ok", nil, nil, &out))
	assert.Len(t, out.Blob, len(big))

	err = c.DoJSON(context.Background(), http.MethodGet, "/fail", nil, nil, nil)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadGateway, he.StatusCode)
	assert.Len(t, he.Body, maxErrorBody)
}

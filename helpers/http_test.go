package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/projectwatcher/pkg/errors"
)

func TestFetchPageSendsHeadersAndCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))

		session, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc123", session.Value)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>Olá, mundo!</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchPage(context.Background(), server.URL, FetchOptions{
		Cookies: []*http.Cookie{{Name: "session", Value: "abc123"}},
	})
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Olá, mundo!")
}

func TestFetchPageNonUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.WriteHeader(http.StatusOK)
		// "Olá" in ISO-8859-1
		w.Write([]byte("<html><body>Ol\xe1</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchPage(context.Background(), server.URL, FetchOptions{})
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Olá")
}

func TestFetchPageErrors(t *testing.T) {
	status := http.StatusInternalServerError
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
		}
		w.WriteHeader(status)
	}))
	defer server.Close()

	_, err := FetchPage(context.Background(), server.URL, FetchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))

	status = http.StatusTooManyRequests
	_, err = FetchPage(context.Background(), server.URL, FetchOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeRateLimit, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "1m0s")

	status = http.StatusNotFound
	_, err = FetchPage(context.Background(), server.URL, FetchOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorType(""), errors.TypeOf(err))
}

func TestFetchPageTimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := FetchPage(context.Background(), server.URL, FetchOptions{
		Client: &http.Client{Timeout: 20 * time.Millisecond},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
}

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "session", "value": "abc123", "domain": ".99freelas.com.br"},
		{"name": "", "value": "ignored", "domain": ".99freelas.com.br"},
		{"name": "csrf", "value": "x", "domain": "www.99freelas.com.br", "path": "/"}
	]`), 0o600))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, ".99freelas.com.br", cookies[0].Domain)
	assert.Equal(t, "/", cookies[1].Path)

	_, err = LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

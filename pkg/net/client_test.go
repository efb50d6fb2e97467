package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client, err := GetHTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Jar)
}

func TestGetTokenClient(t *testing.T) {
	ctx := context.Background()
	client := GetTokenClient(ctx, "test-token")
	assert.NotNil(t, client)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/answers.json":
			w.Write([]byte(`[[1,0]]`))
		case "/missing.json":
			http.NotFound(w, r)
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, Download(client, srv.URL+"/answers.json", dest))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, `[[1,0]]`, string(b))

	err = Download(client, srv.URL+"/missing.json", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrorURLNotFound)

	err = Download(client, srv.URL+"/broken.json", filepath.Join(t.TempDir(), "broken.json"))
	assert.Error(t, err)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"fctl"}`))
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	var target struct {
		Name string `json:"name"`
	}
	require.NoError(t, GetJSON(client, srv.URL, &target))
	assert.Equal(t, "fctl", target.Name)
}

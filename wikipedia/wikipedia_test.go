package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Sabiá","extract":"O sabiá é uma ave passeriforme."}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	extract, err := client.Lookup(context.Background(), "sabiá laranjeira")

	require.NoError(t, err)
	assert.Equal(t, "O sabiá é uma ave passeriforme.", extract)
	assert.Equal(t, "/api/rest_v1/page/summary/"+url.PathEscape("sabiá laranjeira"), gotPath)
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "empty extract",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"title":"Página","extract":""}`))
			},
		},
		{
			name: "missing extract field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"title":"Página"}`))
			},
		},
		{
			name: "unparsable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>not json</html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			_, err := client.Lookup(context.Background(), "qualquer coisa")

			assert.Error(t, err)
		})
	}
}

func TestLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"extract":"tarde demais"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := client.Lookup(context.Background(), "lento")

	assert.Error(t, err)
}

func TestLookupContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"extract":"ok"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Lookup(ctx, "cancelado")

	assert.Error(t, err)
}

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vm/form.aspx":
			assert.Equal(t, "surveyfill-test", r.Header.Get("User-Agent"))
			w.Write([]byte(`<div id="divQuestion"></div>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewStaticFetcher("surveyfill-test")
	body, err := f.Fetch(context.Background(), srv.URL+"/vm/form.aspx")
	require.NoError(t, err)
	assert.Equal(t, `<div id="divQuestion"></div>`, body)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL+"/vm/form.aspx")
	assert.ErrorIs(t, err, context.Canceled)
}

package store

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHeaderWins(t *testing.T) {
	r := NewResolver("", "shops.example.com", "")
	req := httptest.NewRequest(http.MethodGet, "http://acme.shops.example.com/products", nil)
	req.Header.Set("X-Store-ID", "globex")
	assert.Equal(t, "globex", r.Resolve(req))
}

func TestResolveSubdomain(t *testing.T) {
	r := NewResolver("", "shops.example.com", "")
	req := httptest.NewRequest(http.MethodGet, "http://acme.shops.example.com:8080/products", nil)
	assert.Equal(t, "acme", r.Resolve(req))
}

func TestResolveRootDomainHasNoStore(t *testing.T) {
	r := NewResolver("", "shops.example.com", "")
	req := httptest.NewRequest(http.MethodGet, "http://shops.example.com/", nil)
	assert.Equal(t, "", r.Resolve(req))
}

func TestMiddlewareInjectsContext(t *testing.T) {
	r := NewResolver("", "", "fallback")
	var got string
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = ID(req.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "fallback", got)
}

func TestRequireRejectsMissingStore(t *testing.T) {
	h := Require(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

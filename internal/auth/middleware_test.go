package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenshop/storefront/internal/store"
)

func TestRequireSeller(t *testing.T) {
	tokens := testTokens(time.Now())
	mw := Middleware{Tokens: tokens}

	var gotSeller string
	handler := mw.RequireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSeller, _ = SellerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	signed, err := tokens.Issue("seller-1", "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	req = req.WithContext(store.WithID(req.Context(), "s1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "seller-1", gotSeller)
}

func TestRequireSellerMissingToken(t *testing.T) {
	mw := Middleware{Tokens: testTokens(time.Now())}
	handler := mw.RequireSeller(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSellerStoreMismatch(t *testing.T) {
	tokens := testTokens(time.Now())
	mw := Middleware{Tokens: tokens}
	handler := mw.RequireSeller(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	signed, err := tokens.Issue("seller-1", "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	req = req.WithContext(store.WithID(req.Context(), "s2"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

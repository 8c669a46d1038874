package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/store"
)

type contextKey struct{}

var sellerKey contextKey

// WithSellerID stores the authenticated seller in the context.
func WithSellerID(ctx context.Context, sellerID string) context.Context {
	return context.WithValue(ctx, sellerKey, sellerID)
}

// SellerID retrieves the authenticated seller from the context.
func SellerID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sellerKey).(string)
	return v, ok && v != ""
}

// Middleware guards seller routes with bearer-token authentication.
type Middleware struct {
	Tokens *Tokens
}

// RequireSeller rejects requests without a valid token, and rejects tokens
// minted for a different store than the one the request resolved to.
func (m Middleware) RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.Tokens.Parse(extractToken(r))
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing token", nil)
			return
		}
		if storeID, ok := store.ID(r.Context()); ok && storeID != claims.StoreID {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "token is not valid for this store", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSellerID(r.Context(), claims.SellerID)))
	})
}

func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

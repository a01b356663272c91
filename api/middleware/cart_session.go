package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/pkg/logger"
)

// CartSessionHeader carries the anonymous cart id in both directions.
const CartSessionHeader = "X-Cart-Session"

type cartSessions interface {
	Mint(ctx context.Context) (string, error)
	Touch(ctx context.Context, sessionID string) error
}

// CartSession resolves the anonymous cart session for requests without a user.
// Unknown ids are rejected; a missing id is minted and echoed in the response header.
func CartSession(sessions cartSessions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions == nil || UserIDFromContext(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			sessionID := strings.TrimSpace(r.Header.Get(CartSessionHeader))
			if sessionID != "" {
				if err := sessions.Touch(ctx, sessionID); err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
			} else {
				minted, err := sessions.Mint(ctx)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				sessionID = minted
			}

			w.Header().Set(CartSessionHeader, sessionID)
			ctx = WithCartSession(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithField(ctx, "cart_session", sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

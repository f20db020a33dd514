package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbattle-backend/internal/store"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier resolves an opaque token to the user behind it.
type Verifier interface {
	Verify(ctx context.Context, token string) (protocol.Identity, error)
}

type SessionStore interface {
	SessionByToken(ctx context.Context, token string) (store.AuthSession, error)
}

// StoreVerifier checks tokens against persisted auth sessions.
type StoreVerifier struct {
	sessions SessionStore
	clock    clockwork.Clock
}

func NewStoreVerifier(sessions SessionStore, clock clockwork.Clock) *StoreVerifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StoreVerifier{sessions: sessions, clock: clock}
}

func (v *StoreVerifier) Verify(ctx context.Context, token string) (protocol.Identity, error) {
	if token == "" {
		return protocol.Identity{}, ErrUnauthenticated
	}
	sess, err := v.sessions.SessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return protocol.Identity{}, err
	}
	if !v.clock.Now().Before(sess.ExpiresAt) {
		return protocol.Identity{}, ErrUnauthenticated
	}
	return protocol.Identity{
		UserID:   sess.UserID,
		Username: sess.User.Username,
		Avatar:   sess.User.Avatar,
	}, nil
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for browsers that cannot set headers on a
// websocket handshake.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id protocol.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (protocol.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(protocol.Identity)
	return id, ok
}

// Middleware rejects requests without a valid token with 401.
func Middleware(v Verifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(r.Context(), TokenFromRequest(r))
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					log.Error("verify token", zap.Error(err))
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

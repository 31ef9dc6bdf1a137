package auth

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"contribflow/internal/logger"
)

type ctxKey struct{}

// Verifier - то, что умеет превратить заголовок Authorization в пользователя
type Verifier interface {
	VerifyToken(ctx context.Context, authHeader string) (*Identity, error)
}

// WithIdentity кладёт пользователя в контекст
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func UserFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}

// Middleware пропускает запрос дальше только с подтверждённой сессией
func Middleware(v Verifier) func(http.Handler) http.Handler {
	log := logger.WithComponent("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.VerifyToken(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{"path": r.URL.Path}).Warn("authorization failed")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

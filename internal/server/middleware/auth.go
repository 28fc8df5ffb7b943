// Package middleware содержит HTTP middleware сервера синхронизации.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/loclate/loclate/internal/server/jwt"
)

type contextKey string

// ActorKey ключ контекста с именем аутентифицированного актора.
const ActorKey contextKey = "actor"

// ActorFromContext возвращает имя актора, положенное Auth middleware.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(ActorKey).(string)
	return actor
}

// Auth создает middleware для проверки Bearer-токена.
// Имя актора из токена кладется в контекст запроса: обработчики
// записывают его в историю и в updatedBy.
func Auth(logger *slog.Logger, tokens *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header", "path", r.URL.Path)
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("invalid Authorization header format")
				http.Error(w, "Unauthorized: invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				logger.Warn("invalid access token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, claims.Actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
)

const (
	msgInvalidSweepToken = "некорректный токен"
	msgSweepsDisabled    = "запуск проходов отключен"
)

// SweepToken проверяет Authorization: Bearer <token>
// Пустой token запрещает доступ полностью
func SweepToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				handlers.RespondForbidden(w, msgSweepsDisabled)
				return
			}

			header := r.Header.Get("Authorization")
			scheme, got, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				handlers.RespondUnauthorized(w, msgInvalidSweepToken)
				return
			}
			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), expected) != 1 {
				handlers.RespondUnauthorized(w, msgInvalidSweepToken)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// Заголовки, которые проставляет шлюз после аутентификации
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderStylistID = "X-Stylist-ID"
)

const (
	msgMissingIdentity = "отсутствует идентификатор пользователя"
	msgInvalidIdentity = "некорректные заголовки аутентификации"
	msgAdminOnly       = "доступно только администратору"
)

var (
	errNoIdentity     = errors.New("no identity headers")
	errInvalidUserID  = errors.New("invalid user id")
	errInvalidRole    = errors.New("invalid role")
	errMissingStylist = errors.New("stylist role requires stylist id")
	errInvalidStylist = errors.New("invalid stylist id")
	errMissingUserID  = errors.New("customer role requires user id")
)

type ctxKey struct{}

// Auth требует идентификацию вызывающего; без заголовков отвечает 401
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := parseActor(r)
		if err != nil {
			if errors.Is(err, errNoIdentity) {
				handlers.RespondUnauthorized(w, msgMissingIdentity)
				return
			}
			handlers.RespondUnauthorized(w, msgInvalidIdentity)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// OptionalAuth кладет вызывающего в контекст, если заголовки есть
// Анонимный запрос проходит дальше без Actor
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := parseActor(r)
		switch {
		case errors.Is(err, errNoIdentity):
			next.ServeHTTP(w, r)
		case err != nil:
			handlers.RespondUnauthorized(w, msgInvalidIdentity)
		default:
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		}
	})
}

// RequireAdmin пропускает только администраторов; ставится после Auth
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			handlers.RespondUnauthorized(w, msgMissingIdentity)
			return
		}
		if !actor.IsAdmin() {
			handlers.RespondForbidden(w, msgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor кладет вызывающего в контекст
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// GetActor достает вызывающего из контекста
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(domain.Actor)
	return actor, ok
}

// GetUserID достает ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	actor, ok := GetActor(ctx)
	if !ok || actor.UserID == nil {
		return 0, false
	}
	return *actor.UserID, true
}

func parseActor(r *http.Request) (domain.Actor, error) {
	rawUser := strings.TrimSpace(r.Header.Get(HeaderUserID))
	rawRole := strings.TrimSpace(r.Header.Get(HeaderUserRole))
	rawStylist := strings.TrimSpace(r.Header.Get(HeaderStylistID))

	if rawUser == "" && rawRole == "" {
		return domain.Actor{}, errNoIdentity
	}

	var actor domain.Actor

	if rawUser != "" {
		id, err := strconv.ParseInt(rawUser, 10, 64)
		if err != nil || id <= 0 {
			return domain.Actor{}, errInvalidUserID
		}
		actor.UserID = &id
	}

	actor.Role = domain.RoleCustomer
	if rawRole != "" {
		actor.Role = domain.Role(strings.ToLower(rawRole))
		if !actor.Role.IsValid() {
			return domain.Actor{}, errInvalidRole
		}
	}

	switch actor.Role {
	case domain.RoleCustomer:
		if actor.UserID == nil {
			return domain.Actor{}, errMissingUserID
		}
	case domain.RoleStylist:
		if rawStylist == "" {
			return domain.Actor{}, errMissingStylist
		}
		id, err := strconv.ParseInt(rawStylist, 10, 64)
		if err != nil || id <= 0 {
			return domain.Actor{}, errInvalidStylist
		}
		actor.StylistID = &id
	}

	return actor, nil
}

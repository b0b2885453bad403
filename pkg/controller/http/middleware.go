package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

const (
	headerUserID    = "X-User-ID"
	headerUserRoles = "X-User-Roles"
)

type ctxActorKey struct{}

func contextWithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ctxActorKey{}, actor)
}

// actorFrom returns the actor of the request, the anonymous actor if none
func actorFrom(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ctxActorKey{}).(model.Actor); ok {
		return actor
	}
	return model.Actor{}
}

// actorMiddleware resolves the actor of a request. Identity is asserted by
// the authenticating proxy in front of the server through X-User-ID and a
// comma separated X-User-Roles. In NoAuthn mode every request runs as the
// configured actor.
func actorMiddleware(noAuthn *model.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if noAuthn != nil {
				ctx := contextWithActor(r.Context(), *noAuthn)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			actor := model.Actor{UserID: strings.TrimSpace(r.Header.Get(headerUserID))}
			if actor.UserID != "" {
				actor.Roles = parseRoles(r.Header.Get(headerUserRoles))
			}

			ctx := contextWithActor(r.Context(), actor)
			if actor.UserID != "" {
				ctx = logging.With(ctx, logging.From(ctx).With("user_id", actor.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseRoles drops unknown roles. Every identified user has RoleUser.
func parseRoles(header string) []types.Role {
	roles := []types.Role{types.RoleUser}
	for _, s := range strings.Split(header, ",") {
		role, err := types.ParseRole(strings.TrimSpace(s))
		if err != nil || role == types.RoleUser {
			continue
		}
		roles = append(roles, role)
	}
	return roles
}

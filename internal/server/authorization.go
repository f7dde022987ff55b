package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/agrimarket/internal/authorization"
	obscontext "github.com/smallbiznis/agrimarket/internal/observability/context"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
)

const contextActorKey = "actor"

// ActorContext resolves the caller from the actor headers. Outside production
// a request without a role acts as manager.
func (s *Server) ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
		if role == "" {
			if s.cfg.IsProduction() {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			role = authorization.RoleManager
		}

		actor := authorization.Actor{
			Name: strings.TrimSpace(c.GetHeader(HeaderActor)),
			Role: role,
		}
		c.Set(contextActorKey, actor)
		c.Request = c.Request.WithContext(obscontext.WithActorRole(c.Request.Context(), "role:"+role))
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeAction(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeAction(c *gin.Context, object string, action string) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return ErrUnauthorized
	}
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok || orgID == 0 {
		return ErrInvalidCompany
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(c.Request.Context(), actor, orgID, object, action)
}

func actorFromContext(c *gin.Context) (authorization.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return authorization.Actor{}, false
	}
	actor, ok := value.(authorization.Actor)
	return actor, ok
}

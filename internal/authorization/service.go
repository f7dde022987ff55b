package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service decides whether an actor may perform an action on an object inside a company.
type Service interface {
	Authorize(ctx context.Context, actor Actor, orgID snowflake.ID, object string, action string) error
}

// Actor is the caller of a request. Name is informational; Role drives the decision.
type Actor struct {
	Name string
	Role string
}

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)

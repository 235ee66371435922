package permissions

import (
	"context"

	"github.com/fundflow/fundflow/internal/tenancy"
)

// Authorizer is the enforcement surface consumed by domain services.
type Authorizer interface {
	Require(ctx context.Context, user *tenancy.User, scope Scope, perms ...Permission) error
}

// Require checks every permission in order and returns the first failure.
// A nil user is a programmer error, not a denial.
func (c *Checker) Require(ctx context.Context, user *tenancy.User, scope Scope, perms ...Permission) error {
	if user == nil {
		return invalidArgument("user is required for permission checks")
	}
	for _, p := range perms {
		if err := c.Check(ctx, user, p, scope); err != nil {
			return err
		}
	}
	return nil
}

// Guard runs fn only after user passes every permission check, returning fn's
// result unchanged.
func Guard[T any](ctx context.Context, authz Authorizer, user *tenancy.User, scope Scope, perms []Permission, fn func(context.Context) (T, error)) (T, error) {
	if err := authz.Require(ctx, user, scope, perms...); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}

type observedAuthorizer struct {
	next     Authorizer
	observer DecisionObserver
}

// Observe reports each decision taken by next to observer. A nil observer
// returns next unchanged.
func Observe(next Authorizer, observer DecisionObserver) Authorizer {
	if observer == nil {
		return next
	}
	return observedAuthorizer{next: next, observer: observer}
}

func (a observedAuthorizer) Require(ctx context.Context, user *tenancy.User, scope Scope, perms ...Permission) error {
	if len(perms) == 0 {
		return a.next.Require(ctx, user, scope)
	}
	for _, p := range perms {
		err := a.next.Require(ctx, user, scope, p)
		a.observer.ObserveDecision(string(p), outcome(err))
		if err != nil {
			return err
		}
	}
	return nil
}

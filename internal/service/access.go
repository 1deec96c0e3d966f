package service

import (
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
)

func authorize(d permission.Decision) error {
	switch d {
	case permission.Allow:
		return nil
	case permission.Unauthenticated:
		return ErrAuthentication
	default:
		return ErrPermissionDenied
	}
}

// Authorize runs the collection-level check so callers can reject a request
// before looking at its body.
func Authorize(actor permission.Actor, kind permission.Kind, action permission.Action) error {
	return checkCollection(actor, kind, action)
}

// checkCollection runs the collection-level check for kind.
func checkCollection(actor permission.Actor, kind permission.Kind, action permission.Action) error {
	return authorize(permission.HasPermission(actor, kind, action))
}

// checkObject runs both levels for an existing object.
func checkObject(actor permission.Actor, res permission.Resource, action permission.Action) error {
	if err := checkCollection(actor, res.Kind, action); err != nil {
		return err
	}
	return authorize(permission.HasObjectPermission(actor, res, action))
}

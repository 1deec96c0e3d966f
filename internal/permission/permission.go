// Package permission decides read/write access from the actor's role and
// object ownership. It has no HTTP or storage dependencies.
package permission

import (
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
)

// Kind tags the resource being accessed.
type Kind int

const (
	KindTitle Kind = iota
	KindCategory
	KindGenre
	KindUser
	KindReview
	KindComment
	KindProfile
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindCategory:
		return "category"
	case KindGenre:
		return "genre"
	case KindUser:
		return "user"
	case KindReview:
		return "review"
	case KindComment:
		return "comment"
	case KindProfile:
		return "profile"
	}
	return "unknown"
}

type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Safe reports whether the action never mutates state.
func (a Action) Safe() bool {
	return a == ActionRead
}

// Decision is the outcome of a check. Unauthenticated maps to 401 and
// Forbidden to 403 at the HTTP layer.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// Actor is the caller as seen by the permission checks.
type Actor struct {
	ID            uint
	Role          models.Role
	IsStaff       bool
	Authenticated bool
}

func Anonymous() Actor {
	return Actor{}
}

func FromUser(u *models.User) Actor {
	if u == nil {
		return Anonymous()
	}
	return Actor{
		ID:            u.ID,
		Role:          u.Role,
		IsStaff:       u.IsStaff,
		Authenticated: true,
	}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin || a.IsStaff
}

func (a Actor) IsModerator() bool {
	return a.Role == models.RoleModerator
}

// Resource identifies a concrete object. OwnerID is the author for reviews
// and comments and the user's own id for users and profiles.
type Resource struct {
	Kind    Kind
	OwnerID uint
}

// HasPermission is the collection-level check, made before any object is loaded.
func HasPermission(actor Actor, kind Kind, action Action) Decision {
	switch kind {
	case KindTitle, KindCategory, KindGenre:
		if action.Safe() {
			return Allow
		}
		return requireAdmin(actor)
	case KindUser:
		return requireAdmin(actor)
	case KindReview, KindComment:
		if action.Safe() {
			return Allow
		}
		return requireAuthenticated(actor)
	case KindProfile:
		return requireAuthenticated(actor)
	}
	return Forbidden
}

// HasObjectPermission is the object-level check. Writes need an authenticated
// actor who owns the object or holds the admin or moderator role; an
// unauthenticated actor is refused even if it carries a privileged role.
func HasObjectPermission(actor Actor, res Resource, action Action) Decision {
	switch res.Kind {
	case KindTitle, KindCategory, KindGenre:
		if action.Safe() {
			return Allow
		}
		return requireAdmin(actor)
	case KindUser:
		return requireAdmin(actor)
	case KindProfile:
		if d := requireAuthenticated(actor); d != Allow {
			return d
		}
		if actor.ID != res.OwnerID {
			return Forbidden
		}
		return Allow
	case KindReview, KindComment:
		if action.Safe() {
			return Allow
		}
		if d := requireAuthenticated(actor); d != Allow {
			return d
		}
		if actor.ID == res.OwnerID || actor.IsAdmin() || actor.IsModerator() {
			return Allow
		}
		return Forbidden
	}
	return Forbidden
}

// CanWrite runs both levels for a mutating action on an existing object.
// For ActionCreate, pass a Resource with OwnerID equal to the actor's id.
func CanWrite(actor Actor, res Resource, action Action) bool {
	if action.Safe() {
		return false
	}
	if !HasPermission(actor, res.Kind, action).Allowed() {
		return false
	}
	return HasObjectPermission(actor, res, action).Allowed()
}

func requireAuthenticated(actor Actor) Decision {
	if !actor.Authenticated {
		return Unauthenticated
	}
	return Allow
}

func requireAdmin(actor Actor) Decision {
	if !actor.Authenticated {
		return Unauthenticated
	}
	if !actor.IsAdmin() {
		return Forbidden
	}
	return Allow
}

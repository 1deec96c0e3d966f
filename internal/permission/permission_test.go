package permission

import (
	"testing"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/stretchr/testify/assert"
)

var (
	anon      = Anonymous()
	user      = Actor{ID: 1, Role: models.RoleUser, Authenticated: true}
	otherUser = Actor{ID: 2, Role: models.RoleUser, Authenticated: true}
	moderator = Actor{ID: 3, Role: models.RoleModerator, Authenticated: true}
	admin     = Actor{ID: 4, Role: models.RoleAdmin, Authenticated: true}
	staff     = Actor{ID: 5, Role: models.RoleUser, IsStaff: true, Authenticated: true}
)

var writes = []Action{ActionCreate, ActionUpdate, ActionDelete}

func TestHasPermission_AdminOnlyResources(t *testing.T) {
	for _, kind := range []Kind{KindTitle, KindCategory, KindGenre} {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, Allow, HasPermission(anon, kind, ActionRead), "anonymous read")
			for _, action := range writes {
				assert.Equal(t, Unauthenticated, HasPermission(anon, kind, action))
				assert.Equal(t, Forbidden, HasPermission(user, kind, action))
				assert.Equal(t, Forbidden, HasPermission(moderator, kind, action))
				assert.Equal(t, Allow, HasPermission(admin, kind, action))
				assert.Equal(t, Allow, HasPermission(staff, kind, action), "is_staff counts as admin")
			}
		})
	}
}

func TestHasPermission_UserManagementIsAdminOnlyForReads(t *testing.T) {
	assert.Equal(t, Unauthenticated, HasPermission(anon, KindUser, ActionRead))
	assert.Equal(t, Forbidden, HasPermission(user, KindUser, ActionRead))
	assert.Equal(t, Forbidden, HasPermission(moderator, KindUser, ActionDelete))
	assert.Equal(t, Allow, HasPermission(admin, KindUser, ActionRead))
	assert.Equal(t, Allow, HasPermission(staff, KindUser, ActionUpdate))
}

func TestHasPermission_ReviewsAndComments(t *testing.T) {
	for _, kind := range []Kind{KindReview, KindComment} {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, Allow, HasPermission(anon, kind, ActionRead))
			assert.Equal(t, Unauthenticated, HasPermission(anon, kind, ActionCreate))
			assert.Equal(t, Allow, HasPermission(user, kind, ActionCreate))
		})
	}
}

func TestHasObjectPermission_Ownership(t *testing.T) {
	for _, kind := range []Kind{KindReview, KindComment} {
		owned := Resource{Kind: kind, OwnerID: user.ID}
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, Allow, HasObjectPermission(anon, owned, ActionRead))
			for _, action := range []Action{ActionUpdate, ActionDelete} {
				assert.Equal(t, Allow, HasObjectPermission(user, owned, action), "author")
				assert.Equal(t, Forbidden, HasObjectPermission(otherUser, owned, action), "stranger")
				assert.Equal(t, Allow, HasObjectPermission(moderator, owned, action), "moderator")
				assert.Equal(t, Allow, HasObjectPermission(admin, owned, action), "admin")
				assert.Equal(t, Allow, HasObjectPermission(staff, owned, action), "staff")
				assert.Equal(t, Unauthenticated, HasObjectPermission(anon, owned, action), "anonymous")
			}
		})
	}
}

// Regression guard: a privileged role never substitutes for authentication.
// The check must read as authenticated AND (owner OR admin OR moderator).
func TestHasObjectPermission_PrivilegedRoleWithoutAuthentication(t *testing.T) {
	ghostAdmin := Actor{ID: 9, Role: models.RoleAdmin}
	ghostModerator := Actor{ID: 10, Role: models.RoleModerator}
	ghostOwner := Actor{ID: 11, Role: models.RoleUser}
	review := Resource{Kind: KindReview, OwnerID: 11}

	assert.Equal(t, Unauthenticated, HasObjectPermission(ghostAdmin, review, ActionDelete))
	assert.Equal(t, Unauthenticated, HasObjectPermission(ghostModerator, review, ActionUpdate))
	assert.Equal(t, Unauthenticated, HasObjectPermission(ghostOwner, review, ActionUpdate))
	assert.False(t, CanWrite(ghostAdmin, review, ActionDelete))
}

func TestHasObjectPermission_Profile(t *testing.T) {
	own := Resource{Kind: KindProfile, OwnerID: user.ID}

	assert.Equal(t, Allow, HasObjectPermission(user, own, ActionRead))
	assert.Equal(t, Allow, HasObjectPermission(user, own, ActionUpdate))
	assert.Equal(t, Forbidden, HasObjectPermission(otherUser, own, ActionRead))
	assert.Equal(t, Forbidden, HasObjectPermission(admin, own, ActionUpdate), "profile path is self-only")
	assert.Equal(t, Unauthenticated, HasObjectPermission(anon, own, ActionRead))
}

func TestCanWrite(t *testing.T) {
	testCases := []struct {
		name   string
		actor  Actor
		res    Resource
		action Action
		want   bool
	}{
		{"admin creates title", admin, Resource{Kind: KindTitle}, ActionCreate, true},
		{"user creates title", user, Resource{Kind: KindTitle}, ActionCreate, false},
		{"moderator deletes genre", moderator, Resource{Kind: KindGenre}, ActionDelete, false},
		{"user creates review", user, Resource{Kind: KindReview, OwnerID: user.ID}, ActionCreate, true},
		{"anonymous creates review", anon, Resource{Kind: KindReview}, ActionCreate, false},
		{"author edits review", user, Resource{Kind: KindReview, OwnerID: user.ID}, ActionUpdate, true},
		{"stranger edits review", otherUser, Resource{Kind: KindReview, OwnerID: user.ID}, ActionUpdate, false},
		{"moderator deletes comment", moderator, Resource{Kind: KindComment, OwnerID: user.ID}, ActionDelete, true},
		{"admin edits user", admin, Resource{Kind: KindUser, OwnerID: user.ID}, ActionUpdate, true},
		{"user edits other user", user, Resource{Kind: KindUser, OwnerID: otherUser.ID}, ActionUpdate, false},
		{"read is never a write", admin, Resource{Kind: KindTitle}, ActionRead, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanWrite(tc.actor, tc.res, tc.action))
		})
	}
}

func TestFromUser(t *testing.T) {
	assert.Equal(t, Anonymous(), FromUser(nil))

	u := &models.User{ID: 7, Role: models.RoleModerator, IsStaff: true}
	actor := FromUser(u)
	assert.True(t, actor.Authenticated)
	assert.True(t, actor.IsAdmin())
	assert.True(t, actor.IsModerator())
	assert.Equal(t, uint(7), actor.ID)
}

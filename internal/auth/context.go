package auth

import (
	"context"

	"github.com/classecho/classecho/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated caller's identity through a
// request. TeacherID/StudentID are the registry rows linked to the user
// account, zero when the role has no such link.
type AuthContext struct {
	UserID    int64
	Role      string
	TeacherID int64
	StudentID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// TeacherID returns the caller's linked teacher id, or 0.
func TeacherID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.TeacherID
}

// StudentID returns the caller's linked student id, or 0.
func StudentID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.StudentID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleAdmin
}

// HasRole reports whether the caller holds one of the given roles.
func HasRole(ctx context.Context, roles ...string) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if ac.Role == r {
			return true
		}
	}
	return false
}

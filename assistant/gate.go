package assistant

import (
	"context"
	"fmt"

	"github.com/Nm02/Asistente-Academico-IITA/thread"
)

// roleCache resolves course roles through the platform and memoizes them per
// (course, user) pair. It lives for one discussion-event task; it is never
// shared across tasks.
type roleCache struct {
	platform Platform
	roles    map[roleKey][]string
}

type roleKey struct {
	courseID int64
	userID   int64
}

func newRoleCache(platform Platform) *roleCache {
	return &roleCache{
		platform: platform,
		roles:    make(map[roleKey][]string),
	}
}

func (c *roleCache) lookup(ctx context.Context, courseID, userID int64) ([]string, error) {
	key := roleKey{courseID: courseID, userID: userID}
	if roles, ok := c.roles[key]; ok {
		return roles, nil
	}

	user, err := c.platform.GetUserCourseData(ctx, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles for user %d in course %d: %w", userID, courseID, err)
	}

	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, role.ShortName)
	}
	c.roles[key] = roles
	return roles, nil
}

func isTeacherRole(roles []string) bool {
	for _, role := range roles {
		if role == "teacher" || role == "editingteacher" {
			return true
		}
	}
	return false
}

// shouldRespond applies the eligibility rules in order, short-circuiting:
// the course must be in the bound account's enrolled set, the last message
// must not be the assistant's own, and the last author must not hold a
// teaching role in the course.
func shouldRespond(ctx context.Context, cache *roleCache, selfID int64, enrolled map[int64]bool, courseID int64, conversation thread.Conversation) (bool, error) {
	if !enrolled[courseID] {
		return false, nil
	}
	if conversation.LastAuthorID == selfID {
		return false, nil
	}

	roles, err := cache.lookup(ctx, courseID, conversation.LastAuthorID)
	if err != nil {
		return false, err
	}
	if isTeacherRole(roles) {
		return false, nil
	}
	return true, nil
}

// resolveRoles fills in the course roles of every message author on the
// path. The history formatter needs them to tell teacher turns from student
// turns; repeated authors hit the cache.
func resolveRoles(ctx context.Context, cache *roleCache, courseID int64, conversation *thread.Conversation) error {
	for i := range conversation.Messages {
		roles, err := cache.lookup(ctx, courseID, conversation.Messages[i].AuthorID)
		if err != nil {
			return err
		}
		conversation.Messages[i].Roles = roles
	}
	return nil
}

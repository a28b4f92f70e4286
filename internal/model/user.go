package model

// Profile defaults applied when a user has no stored preference.
const (
	DefaultLanguage = "en"
	DefaultTimezone = "UTC"
)

// User is a stored user with interest, category and follow relations
// resolved. The store always returns the slices non-nil.
type User struct {
	ID                 int64
	Name               string
	Email              string
	Interests          []string
	FollowedCategories []string
	FollowedUserIDs    []int64
	PreferredLanguage  string
	Timezone           string
}

// UserProfileSnapshot is the read-only projection of a user served for
// personalization.
type UserProfileSnapshot struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Interests          []string `json:"interests"`
	FollowedCategories []string `json:"followedCategories"`
	FollowedUserIDs    []int64  `json:"followedUserIds"`
	PreferredLanguage  string   `json:"preferredLanguage"`
	Timezone           string   `json:"timezone"`
}

// EmptyUserProfileSnapshot returns the snapshot served for a missing user.
func EmptyUserProfileSnapshot() UserProfileSnapshot {
	return UserProfileSnapshot{
		Interests:          []string{},
		FollowedCategories: []string{},
		FollowedUserIDs:    []int64{},
		PreferredLanguage:  DefaultLanguage,
		Timezone:           DefaultTimezone,
	}
}

// Snapshot projects u, filling in profile defaults.
func (u *User) Snapshot() UserProfileSnapshot {
	s := UserProfileSnapshot{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Interests:          nonNil(u.Interests),
		FollowedCategories: nonNil(u.FollowedCategories),
		FollowedUserIDs:    nonNil(u.FollowedUserIDs),
		PreferredLanguage:  u.PreferredLanguage,
		Timezone:           u.Timezone,
	}
	if s.PreferredLanguage == "" {
		s.PreferredLanguage = DefaultLanguage
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	return s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

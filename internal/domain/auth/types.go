package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "slices"

// Role represents the kind of actor behind a session.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "jobseeker"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployer || r == RoleJobSeeker
}

// Credentials carries sign-in form input.
// RememberMe is collected by the form but does not influence any lifetime.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// Session is the authenticated actor as mirrored for one client application run.
// Saved holds job-posting identifiers; each appears at most once.
type Session struct {
	UserID    string   `json:"user_id"`
	Role      Role     `json:"role"`
	Email     string   `json:"email"`
	Name      string   `json:"name,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Saved     []string `json:"saved"`

	// Token is an optional bearer credential issued by the backend. It never leaves the server.
	Token string `json:"token,omitempty"`
}

// HasSaved reports whether id is in the saved set.
func (s Session) HasSaved(id string) bool {
	return slices.Contains(s.Saved, id)
}

// Clone returns a deep copy so callers never share the saved slice.
func (s Session) Clone() Session {
	out := s
	out.Saved = slices.Clone(s.Saved)
	if out.Saved == nil {
		out.Saved = []string{}
	}
	return out
}

// Normalize returns a copy with empty and duplicate saved ids removed, keeping first occurrence order.
func (s Session) Normalize() Session {
	out := s
	out.Saved = UniqueIDs(s.Saved)
	return out
}

// UniqueIDs drops empty and repeated identifiers while preserving order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

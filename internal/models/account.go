package models

import "time"

// User is the identity service's account record. Opaque beyond these fields.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session is the identity service's proof of authentication.
// It is replaced as a whole on refresh; its contents are never edited locally.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`

	// ExpiresAt is the expiry as unix seconds.
	ExpiresAt int64 `json:"expires_at"`

	User *User `json:"user,omitempty"`
}

// ExpiresWithin reports whether the session expires before now+margin.
// A session without an expiry never expires.
func (s *Session) ExpiresWithin(now time.Time, margin time.Duration) bool {
	if s == nil || s.ExpiresAt == 0 {
		return false
	}
	return time.Unix(s.ExpiresAt, 0).Before(now.Add(margin))
}

// Profile is the per-user row in the profiles table. Read and written as a whole.
type Profile struct {
	// Username is the public handle.
	Username string `json:"username"`

	// FullName is the display name.
	FullName string `json:"full_name"`

	// AvatarPath is the object path inside the avatar bucket, not a URL.
	AvatarPath string `json:"avatar_url"`

	// WebsiteURL is optional.
	WebsiteURL string `json:"website,omitempty"`
}

// DisplayName is the greeting name: the username or "User".
func (p *Profile) DisplayName() string {
	if p == nil || p.Username == "" {
		return "User"
	}
	return p.Username
}

package main

import "time"

// Profile is a user's discoverable card. The profile-management service
// owns these rows; this engine only reads them.
type Profile struct {
	UserID   int      `json:"user_id"`
	Username string   `json:"username"`
	Type     string   `json:"type"` // "solo" | "couple" | "group"
	Age      int      `json:"age"`
	Bio      string   `json:"bio,omitempty"`
	Location string   `json:"location,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Valid profile types. "all" is only meaningful inside a FilterConfig.
const (
	ProfileTypeSolo   = "solo"
	ProfileTypeCouple = "couple"
	ProfileTypeGroup  = "group"
	ProfileTypeAll    = "all"
)

// Like is a directed interest edge. Unique per ordered pair; deleted only
// by an explicit unlike, which never touches an existing match.
type Like struct {
	SourceUserID int       `json:"source_user_id"`
	TargetUserID int       `json:"target_user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Match is the canonical mutual-like record. UserA < UserB always, so a
// single row can exist per unordered pair.
type Match struct {
	ID        int64     `json:"id"`
	UserA     int       `json:"user_a"`
	UserB     int       `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// OtherUser returns the participant that isn't userID.
func (m Match) OtherUser(userID int) int {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// HasParticipant reports whether userID is one of the match's two users.
func (m Match) HasParticipant(userID int) bool {
	return m.UserA == userID || m.UserB == userID
}

// Message is one append-only chat entry inside a match. Ordering within a
// match is created_at with the id as tiebreak.
type Message struct {
	ID        int64     `json:"id"`
	MatchID   int64     `json:"match_id"`
	SenderID  int       `json:"sender_id"`
	Body      string    `json:"body,omitempty"`
	MediaRef  string    `json:"media_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FilterConfig is the per-request, non-persistent feed filter.
type FilterConfig struct {
	AgeMin      int
	AgeMax      int
	ProfileType string   // "all" disables the type filter
	Tags        []string // non-empty requires at least one overlapping tag
}

// DefaultFilter matches everything a viewer is allowed to see.
func DefaultFilter() FilterConfig {
	return FilterConfig{AgeMin: 18, AgeMax: 120, ProfileType: ProfileTypeAll}
}

// Validate rejects impossible filter combinations before they reach SQL.
func (f FilterConfig) Validate() error {
	if f.AgeMin < 0 || f.AgeMax < 0 || (f.AgeMax > 0 && f.AgeMin > f.AgeMax) {
		return ErrValidation
	}
	switch f.ProfileType {
	case "", ProfileTypeAll, ProfileTypeSolo, ProfileTypeCouple, ProfileTypeGroup:
		return nil
	default:
		return ErrValidation
	}
}

// canonicalPair orders two user IDs under the fixed total order used for
// the matches table, so {u,v} and {v,u} hit the same unique key.
func canonicalPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

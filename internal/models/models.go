package models

import "time"

// Role names stored in user_roles
const (
	RoleMember    = "Member"
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleVIP       = "VIP"
)

// KnownRoles lists every role that can be assigned to a user
var KnownRoles = []string{RoleAdmin, RoleModerator, RoleMember, RoleVIP}

// IsKnownRole reports whether name is one of KnownRoles
func IsKnownRole(name string) bool {
	for _, r := range KnownRoles {
		if r == name {
			return true
		}
	}
	return false
}

// User represents a registered member
type User struct {
	ID                  int64     `json:"id"`
	Username            string    `json:"username"`
	PasswordHash        *string   `json:"-"`
	Gender              string    `json:"gender"`
	DateOfBirth         time.Time `json:"date_of_birth"`
	KnownAs             string    `json:"known_as"`
	Introduction        string    `json:"introduction"`
	LookingFor          string    `json:"looking_for"`
	Interests           string    `json:"interests"`
	City                string    `json:"city"`
	Country             string    `json:"country"`
	Created             time.Time `json:"created"`
	LastActive          time.Time `json:"last_active"`
	Roles               []string  `json:"roles,omitempty"`
	PushToken           *string   `json:"-"`
	WebPushSubscription *string   `json:"-"`
	PhotoURL            string    `json:"photo_url,omitempty"`
	Photos              []Photo   `json:"photos,omitempty"`
}

// Age returns the user's age in whole years at the given moment
func (u *User) Age(now time.Time) int {
	return AgeAt(u.DateOfBirth, now)
}

// AgeAt returns the number of full years between dob and now
func AgeAt(dob, now time.Time) int {
	if dob.IsZero() {
		return 0
	}
	age := now.Year() - dob.Year()
	if dob.AddDate(age, 0, 0).After(now) {
		age--
	}
	return age
}

// Photo represents an image owned by a user
type Photo struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"date_added"`
	PublicID    *string   `json:"-"`
	IsApproved  bool      `json:"is_approved"`
	IsMain      bool      `json:"is_main"`
}

// Like is a one-directional expression of interest
type Like struct {
	LikerID int64     `json:"liker_id"`
	LikeeID int64     `json:"likee_id"`
	Created time.Time `json:"created"`
}

// Message is a direct message between two users
type Message struct {
	ID                int64      `json:"id"`
	SenderID          int64      `json:"sender_id"`
	SenderUsername    string     `json:"sender_username"`
	SenderKnownAs     string     `json:"sender_known_as"`
	SenderPhotoURL    string     `json:"sender_photo_url"`
	RecipientID       int64      `json:"recipient_id"`
	RecipientUsername string     `json:"recipient_username"`
	RecipientKnownAs  string     `json:"recipient_known_as"`
	RecipientPhotoURL string     `json:"recipient_photo_url"`
	Content           string     `json:"content"`
	MessageSent       time.Time  `json:"message_sent"`
	IsRead            bool       `json:"is_read"`
	DateRead          *time.Time `json:"date_read,omitempty"`
	SenderDeleted     bool       `json:"-"`
	RecipientDeleted  bool       `json:"-"`
}

// IsParty reports whether userID is the sender or the recipient
func (m *Message) IsParty(userID int64) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// DeletedBy reports whether userID has removed the message from their view
func (m *Message) DeletedBy(userID int64) bool {
	return (m.SenderID == userID && m.SenderDeleted) ||
		(m.RecipientID == userID && m.RecipientDeleted)
}

// Caller identifies the authenticated user performing an operation
type Caller struct {
	ID       int64
	Username string
	Roles    []string
}

// HasRole reports whether the caller holds any of the given roles
func (c Caller) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// User search orderings
const (
	OrderByLastActive = "lastActive"
	OrderByCreated    = "created"
)

// UserSearch is the resolved query for listing other users
type UserSearch struct {
	CallerID  int64
	Gender    string
	MinDOB    time.Time
	MaxDOB    time.Time
	Interests string
	OrderBy   string
	Likers    bool
	Likees    bool
	PageParams
}

package chat

import (
	"time"

	"chatline/internal/user"
)

// Chat is a conversation: a one-to-one pair or a named group. A non-group
// chat has exactly two participants. InactiveFor hides the chat from a
// participant's list without touching the underlying messages; the user
// stays a participant throughout.
type Chat struct {
	ID           string    `json:"id"`
	IsGroup      bool      `json:"isGroup"`
	Name         string    `json:"name,omitempty"`
	Participants []string  `json:"participants"`
	Admin        string    `json:"admin,omitempty"`
	InactiveFor  []string  `json:"inactiveFor"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsInactiveFor reports whether the chat is hidden for userID.
func (c *Chat) IsInactiveFor(userID string) bool {
	for _, id := range c.InactiveFor {
		if id == userID {
			return true
		}
	}
	return false
}

// RecentChat is the sidebar projection of a chat for one user.
type RecentChat struct {
	ID              string        `json:"id"`
	IsGroup         bool          `json:"isGroup"`
	Name            string        `json:"name,omitempty"`
	Friend          *user.Summary `json:"friend,omitempty"`
	LastMessageTime time.Time     `json:"lastMessageTime"`
	IsInactive      bool          `json:"isInactive"`
}

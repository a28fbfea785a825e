package entity

import "time"

// User is a registered account. Credential issuance lives outside this
// service; only lookups needed for identity resolution and display happen here.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	ProfilePic string    `json:"profilePic,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary is the sender projection embedded in message payloads.
type Summary struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// Summary returns the display projection of u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic}
}

package friend

import (
	"time"

	"chatline/internal/user"
)

// Request statuses. A pair moves none -> pending -> accepted|rejected; a
// fresh send from either side re-enters pending on the same document.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Request is the single friend-request document for an unordered user pair.
// Sender and receiver describe the current direction; a resend after a
// rejection may flip them.
type Request struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PairKey normalizes an unordered user pair to a stable key. The unique
// index on this key is what guarantees at most one document per pair.
func PairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// Friend is a query projection: the counterpart's summary plus the request
// state it came from.
type Friend struct {
	user.Summary
	Email     string `json:"email,omitempty"`
	Status    string `json:"friendRequestStatus"`
	RequestID string `json:"requestId"`
}

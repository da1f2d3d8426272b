package domain

import "time"

// Stored document field names
const (
	FieldName              = "name"
	FieldStatus            = "status"
	FieldCreatedAt         = "created_at"
	FieldMemo              = "memo"
	FieldAddress           = "address"
	FieldFriends           = "friends"
	FieldDestinationUserID = "destination_user_id"
	FieldCommingFriends    = "comming_friends"
)

// Status constants
const (
	StatusOpen   = "open"
	StatusClosed = "closed"

	// legacyStatusClose is a bad value written by older clients
	legacyStatusClose = "close"
)

const DefaultName = "Unknown"

// User is the normalized view of a stored user document
type User struct {
	ID                string    `json:"user_id" yaml:"user_id"`
	Name              string    `json:"name" yaml:"name"`
	Status            string    `json:"status" yaml:"status"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
	Memo              string    `json:"memo" yaml:"memo"`
	Address           string    `json:"address" yaml:"address"`
	Friends           []string  `json:"-" yaml:"friends,omitempty"`
	DestinationUserID string    `json:"-" yaml:"destination_user_id,omitempty"`
	CommingFriends    []string  `json:"-" yaml:"comming_friends,omitempty"`
}

// IsTraveling reports whether the user has an active destination
func (u *User) IsTraveling() bool {
	return u.DestinationUserID != ""
}

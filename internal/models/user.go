package models

import "time"

// User represents a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	UserName     string    `bson:"userName" json:"userName"`
	FirstName    string    `bson:"firstName" json:"firstName"`
	LastName     string    `bson:"lastName" json:"lastName"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreationDate time.Time `bson:"creationDate" json:"creationDate"`
}

// Identity is the authenticated principal attached to a request.
// A nil *Identity means the caller is anonymous.
type Identity struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Identity returns the request principal for this user.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return &Identity{ID: u.ID, UserName: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

// DisplayName is "First Last", falling back to the user name.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.FirstName == "" && i.LastName == "" {
		return i.UserName
	}
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

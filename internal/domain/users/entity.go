package users

import "time"

// ID identifier type
type ID string

// User is the persisted account record. PasswordHash never leaves the server.
type User struct {
	ID           ID        `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Analyses     []string  `json:"analyses"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view returned alongside tokens.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Profile() Profile {
	return Profile{Email: u.Email, Name: u.Name}
}

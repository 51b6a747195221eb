package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field. Tokens holds the
// user's currently valid session tokens; revoking a session means removing
// its token from this set.
type User struct {
	ID        string
	Name      string
	Age       int
	Email     string
	Password  string
	Tokens    []string
	Avatar    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the externally observable representation of a User.
// Password, tokens, and avatar bytes are never part of it.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Age:       u.Age,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// HasToken reports whether the exact token string is in the active set.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

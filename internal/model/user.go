// Package model defines domain entities for the application.
package model

import "time"

// User is a reviewer account. Email is the identity key; APIToken is the
// shared secret the reviewer presents alongside it.
type User struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	APIToken  string    `json:"apiToken"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicUser is a user without credentials, used for exports.
type PublicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips the token from a user.
func (u *User) Public() PublicUser {
	return PublicUser{
		Name:  u.Name,
		Email: u.Email,
	}
}

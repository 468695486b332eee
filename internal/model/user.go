package model

import (
	"time"
)

type User struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"` // never serialized
	Bio            string    `db:"bio" json:"bio"`
	Major          string    `db:"major" json:"major"`
	ProfilePicture string    `db:"profile_picture" json:"profilePicture"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`

	// Loaded separately (saved_resources table or the user document)
	SavedResources []string `db:"-" json:"savedResources"`
}

// Summary is the populated form of a user reference.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
	}
}

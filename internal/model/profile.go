package model

// UserSummary is what a soft user reference resolves to at read time.
type UserSummary struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	ProfilePicture string `db:"profile_picture" json:"profilePicture"`
}

// ProfileUpdate is a partial update of the editable profile fields.
// A nil field is left unchanged, a non-nil one overwrites (bio and major
// may be cleared with an empty string). Email is not editable.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`
	Major *string `json:"major"`
}

// Empty reports whether the update would change nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Bio == nil && p.Major == nil
}

// Apply copies the provided fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Major != nil {
		u.Major = *p.Major
	}
}

package users

import "time"

// DefaultAvatarURL is assigned to every account created through the sign-up
// flow until the user uploads their own picture.
const DefaultAvatarURL = "https://commons.wikimedia.org/wiki/File:Profile_avatar_placeholder_large.png"

type User struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

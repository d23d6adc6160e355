package entity

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
)

type UserProfile struct {
	ID          string    `json:"id" firestore:"id"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Email       string    `json:"email,omitempty" firestore:"email"`
	PhotoURL    string    `json:"photo_url,omitempty" firestore:"photoUrl,omitempty"`
	Location    string    `json:"location,omitempty" firestore:"location,omitempty"`
	Role        string    `json:"role" firestore:"role"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *UserProfile) IsModerator() bool {
	return u.Role == RoleModerator
}

package models

import "time"

// Role identifies who is acting on a booking.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleSystem   Role = "system"
)

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used by background jobs such as the completion sweep.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// User is a client document from the "users" collection.
type User struct {
	ID          string    `bson:"id" json:"id"`
	Username    string    `bson:"username" json:"username"`
	PhoneNumber string    `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	FCMToken    string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

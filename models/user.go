package models

import "time"

// User defines the structure for user profiles
type User struct {
	ID                string              `dynamodbav:"userId" json:"id" gorm:"primaryKey;type:varchar(64)"` // ✅ Partition Key
	Name              string              `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Email             string              `dynamodbav:"email,omitempty" json:"email,omitempty"`
	DeviceInfo        map[string]string   `dynamodbav:"device_info,omitempty" json:"device_info,omitempty" gorm:"type:text;serializer:json"`
	ProfilePictureURL string              `dynamodbav:"profile_picture_url,omitempty" json:"profile_picture_url,omitempty"`
	Language          string              `dynamodbav:"language,omitempty" json:"language,omitempty"`
	Location          *Location           `dynamodbav:"location,omitempty" json:"location,omitempty" gorm:"type:text;serializer:json"`
	SizePreferences   map[string][]string `dynamodbav:"size_preferences,omitempty" json:"size_preferences,omitempty" gorm:"type:text;serializer:json"` // category -> acceptable sizes
	CreatedAt         time.Time           `dynamodbav:"created_at" json:"created_at" gorm:"autoCreateTime:false"`
	LastActive        time.Time           `dynamodbav:"last_active" json:"last_active"`
}

func (User) TableName() string { return "users" }

// UserPatch carries the profile fields supplied by a merge write.
// Nil fields are left untouched.
type UserPatch struct {
	Name              *string             `json:"name,omitempty"`
	Email             *string             `json:"email,omitempty"`
	DeviceInfo        map[string]string   `json:"device_info,omitempty"`
	ProfilePictureURL *string             `json:"profile_picture_url,omitempty"`
	Language          *string             `json:"language,omitempty"`
	Location          *Location           `json:"location,omitempty"`
	SizePreferences   map[string][]string `json:"size_preferences,omitempty"`
}

// Apply overwrites the supplied fields on u
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DeviceInfo != nil {
		u.DeviceInfo = p.DeviceInfo
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = *p.ProfilePictureURL
	}
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Location != nil {
		u.Location = p.Location
	}
	if p.SizePreferences != nil {
		u.SizePreferences = p.SizePreferences
	}
}

// UserSummary is the slice of a profile shown next to a match
type UserSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// Summary returns the public part of the profile
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfilePictureURL: u.ProfilePictureURL}
}

package models

import "time"

type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Timezone      string `json:"timezone"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Timezone: "UTC"}
}

type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Avatar       *string     `json:"avatar"`
	Preferences  Preferences `json:"preferences"`
	Role         string      `json:"role"`
	IsActive     bool        `json:"isActive"`
	LastLogin    *time.Time  `json:"lastLogin"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Attachment struct {
	Type       string    `json:"type,omitempty" validate:"omitempty,oneof=image file link"`
	Filename   string    `json:"filename" validate:"max=255"`
	URL        string    `json:"url" validate:"required,url,max=2048"`
	Size       int64     `json:"size" validate:"gte=0"`
	MimeType   string    `json:"mimeType" validate:"max=100"`
	UploadedAt time.Time `json:"uploadedAt"`
}

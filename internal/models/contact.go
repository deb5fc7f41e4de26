package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is a professional contact record. Unlock state is never stored here;
// it is always derived from the requesting user's ledger.
type Contact struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	JobTitle       string             `bson:"job_title" json:"jobTitle"`
	Company        string             `bson:"company" json:"company"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	Industry       string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Experience     int                `bson:"experience,omitempty" json:"experience,omitempty"`
	SeniorityLevel string             `bson:"seniority_level,omitempty" json:"seniorityLevel,omitempty"`
	Skills         []string           `bson:"skills,omitempty" json:"skills,omitempty"`
	Education      string             `bson:"education,omitempty" json:"education,omitempty"`
	Avatar         string             `bson:"avatar,omitempty" json:"avatar,omitempty"`

	// Private fields, revealed only after unlock.
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`

	UploadedBy string    `bson:"uploaded_by" json:"uploadedBy"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploadedAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// ContactInput is the client-supplied part of a contact.
type ContactInput struct {
	Name           string   `json:"name" validate:"required"`
	JobTitle       string   `json:"jobTitle" validate:"required"`
	Company        string   `json:"company" validate:"required"`
	Location       string   `json:"location"`
	Industry       string   `json:"industry"`
	Experience     int      `json:"experience" validate:"gte=0"`
	SeniorityLevel string   `json:"seniorityLevel"`
	Skills         []string `json:"skills"`
	Education      string   `json:"education"`
	Avatar         string   `json:"avatar"`
	Email          string   `json:"email" validate:"required"`
	Phone          string   `json:"phone" validate:"required"`
}

// ToContact builds a new, not yet persisted contact owned by uploadedBy.
func (in ContactInput) ToContact(uploadedBy string, now time.Time) *Contact {
	return &Contact{
		ID:             primitive.NewObjectID(),
		Name:           in.Name,
		JobTitle:       in.JobTitle,
		Company:        in.Company,
		Location:       in.Location,
		Industry:       in.Industry,
		Experience:     in.Experience,
		SeniorityLevel: in.SeniorityLevel,
		Skills:         in.Skills,
		Education:      in.Education,
		Avatar:         in.Avatar,
		Email:          in.Email,
		Phone:          in.Phone,
		UploadedBy:     uploadedBy,
		UploadedAt:     now,
		UpdatedAt:      now,
	}
}

// ContactView is a contact as seen by one particular user.
type ContactView struct {
	Contact
	IsUnlocked bool `json:"isUnlocked"`
}

// ContactSummary is the short form used in dashboard listings.
type ContactSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	JobTitle   string    `json:"jobTitle"`
	Company    string    `json:"company"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Summary returns the short form of c.
func (c *Contact) Summary() ContactSummary {
	return ContactSummary{
		ID:         c.ID.Hex(),
		Name:       c.Name,
		JobTitle:   c.JobTitle,
		Company:    c.Company,
		UploadedAt: c.UploadedAt,
	}
}

package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	TableUser = "users"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Profile of a wallet owner, both clients and freelancers
type User struct {
	// Stored as first seen, matched case-insensitively
	WalletAddress string `gorm:"primaryKey" json:"walletAddress"`

	Id             string         `json:"id"`
	UserName       string         `json:"userName"`
	Avatar         string         `json:"avatar"`
	Resume         string         `json:"resume"`
	Age            *int           `json:"age"`
	Location       string         `json:"location"`
	Gender         Gender         `json:"gender"`
	HourlyRate     *float64       `json:"hourlyRate"`
	Bio            string         `json:"bio"`
	JobTitle       string         `json:"jobTitle"`
	JobDescription string         `json:"jobDescription"`
	Skills         pq.StringArray `gorm:"type:text[]" json:"skills"`

	Portfolio   JSONList[PortfolioEntry]   `gorm:"type:jsonb" json:"portfolio"`
	WorkHistory JSONList[WorkHistoryEntry] `gorm:"type:jsonb" json:"workHistory"`
	Languages   JSONList[Language]         `gorm:"type:jsonb" json:"languages"`
	Education   JSONList[Education]        `gorm:"type:jsonb" json:"education"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return TableUser
}

func (self *User) Clone() *User {
	out := *self
	out.Skills = cloneStrings(self.Skills)
	out.Portfolio = append(JSONList[PortfolioEntry](nil), self.Portfolio...)
	for i := range out.Portfolio {
		out.Portfolio[i].Skills = append([]string(nil), out.Portfolio[i].Skills...)
	}
	out.WorkHistory = append(JSONList[WorkHistoryEntry](nil), self.WorkHistory...)
	out.Languages = append(JSONList[Language](nil), self.Languages...)
	out.Education = append(JSONList[Education](nil), self.Education...)
	return &out
}

type PortfolioEntry struct {
	Id          string   `json:"id"`
	Title       string   `json:"title"`
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`

	// Opaque reference to the project's content
	Content string `json:"content"`
}

type WorkHistoryEntry struct {
	Id          string     `json:"id"`
	JobTitle    string     `json:"jobTitle"`
	Company     string     `json:"company"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Description string     `json:"description"`
}

type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
}

package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Roles supported by the platform. Every user holds exactly one.
const (
	RoleCreator = "creator"
	RoleTalent  = "talent"
)

// User is an account holder. The attached profile matches Role.
type User struct {
	BaseModel

	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FullName  string `gorm:"not null" json:"full_name"`
	Role      string `gorm:"type:varchar(16);not null;index" json:"role"`
	Password  string `gorm:"not null" json:"-"`
	AvatarURL string `json:"avatar_url"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`

	TalentProfile  *TalentProfile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"talent_profile,omitempty"`
	CreatorProfile *CreatorProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"creator_profile,omitempty"`
}

// IsCreator reports whether the user signed up as a creator.
func (u *User) IsCreator() bool {
	return u != nil && u.Role == RoleCreator
}

// IsTalent reports whether the user signed up as a talent.
func (u *User) IsTalent() bool {
	return u != nil && u.Role == RoleTalent
}

// EmailLocalPart returns the portion of the email before '@'.
func (u *User) EmailLocalPart() string {
	if u == nil {
		return ""
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// TalentProfile holds the marketplace facing details of a talent.
type TalentProfile struct {
	BaseModel

	UserID            string                      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ProfessionalTitle string                      `json:"professional_title"`
	Bio               string                      `gorm:"type:text" json:"bio"`
	Skills            datatypes.JSONSlice[string] `json:"skills"`
	PrimarySkill      string                      `json:"primary_skill"`
	HourlyRate        *float64                    `gorm:"type:decimal(10,2)" json:"hourly_rate"`
	PortfolioLinks    datatypes.JSONSlice[string] `json:"portfolio_links"`
	Availability      string                      `gorm:"type:varchar(32)" json:"availability"`
}

// CreatorProfile holds company details for a creator.
type CreatorProfile struct {
	BaseModel

	UserID      string            `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CompanyName string            `json:"company_name"`
	Bio         string            `gorm:"type:text" json:"bio"`
	Website     string            `json:"website"`
	Industry    string            `json:"industry"`
	Location    string            `json:"location"`
	SocialLinks datatypes.JSONMap `json:"social_links"`
	Verified    bool              `gorm:"default:false" json:"verified"`
}

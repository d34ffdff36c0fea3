package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/likelion-sch/recruit/core"
)

// Roles
const (
	RoleApplicant  = "APPLICANT"
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
)

var AllRoles = []string{RoleApplicant, RoleStudent, RoleInstructor}

type User struct {
	ID             int       `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	StudentID      string    `json:"student_id" db:"student_id"`
	Department     string    `json:"department" db:"department"`
	Phone          string    `json:"phone" db:"phone"`
	Role           string    `json:"role" db:"role"`
	EmailVerified  bool      `json:"email_verified" db:"email_verified"`
	EducationTrack string    `json:"education_track" db:"education_track"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	IsStaff        bool      `json:"is_staff" db:"is_staff"`
	PasswordHash   []byte    `json:"-" db:"password_hash"`
	DateJoined     time.Time `json:"date_joined" db:"date_joined"` // UTC
	LastLogin      null.Time `json:"last_login" db:"last_login"`   // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// IsInstructorOrStaff grants access to the admin console and to instructor-only session endpoints.
func (u User) IsInstructorOrStaff() bool {
	return u.Role == RoleInstructor || u.IsStaff
}

// TrackAlias is the short track name used by the frontend.
func TrackAlias(track string) string {
	switch track {
	case "PLANNING_DESIGN":
		return "PLANNING"
	case "AI_SERVER":
		return "AI"
	}
	return track
}

// Me is the profile returned to the logged in user.
type Me struct {
	ID            int         `json:"id"`
	Email         string      `json:"email"`
	Role          string      `json:"role"`
	EmailVerified bool        `json:"email_verified"`
	Name          string      `json:"name"`
	StudentID     string      `json:"student_id"`
	Department    string      `json:"department"`
	Phone         string      `json:"phone"`
	IsStaff       bool        `json:"is_staff"`
	Track         null.String `json:"track"`
}

func (u User) Me() Me {
	me := Me{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		Name:          u.Name,
		StudentID:     u.StudentID,
		Department:    u.Department,
		Phone:         u.Phone,
		IsStaff:       u.IsStaff,
	}
	if u.EducationTrack != "" {
		me.Track = null.StringFrom(TrackAlias(u.EducationTrack))
	}
	return me
}

// NewUser contains information needed to sign up.
type NewUser struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	StudentID  string `json:"student_id"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.StudentID = core.CleanString(nu.StudentID)
	nu.Department = core.CleanString(nu.Department)
	nu.Phone = core.CleanString(nu.Phone)
}

type GetFilter struct {
	ID    int
	Email string
}

// EmailVerification is a one-time code sent to an address before sign up.
type EmailVerification struct {
	ID         string    `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	CodeHash   []byte    `json:"-" db:"code_hash"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	VerifiedAt null.Time `json:"verified_at" db:"verified_at"`
}

func (v EmailVerification) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

func (v EmailVerification) CheckCode(code string) bool {
	return bcrypt.CompareHashAndPassword(v.CodeHash, []byte(code)) == nil
}

type (
	SendCodeResult struct {
		AlreadyVerified bool `json:"already_verified,omitempty"`
		ExpiresIn       int  `json:"expires_in"`
	}

	VerifyResult struct {
		Verified   bool `json:"verified"`
		UserExists bool `json:"user_exists"`
	}
)

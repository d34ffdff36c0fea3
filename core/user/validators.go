package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/likelion-sch/recruit/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to your personal information"
)

// InitValidators registers the user validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, roleTag, roleText, AllRoles...)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Validate cleans nu and checks it in the order the signup form reports problems:
// credentials, school domain, profile, then the password policy.
func (nu *NewUser) Validate(validate *validator.Validate, schoolDomain string) error {
	nu.Clean()
	if nu.Email == "" || nu.Password == "" {
		return ErrEmailPasswordRequired
	}
	if !IsSchoolEmail(nu.Email, schoolDomain) {
		return ErrSchoolEmailRequired
	}
	if nu.Name == "" || nu.StudentID == "" || nu.Department == "" {
		return ErrProfileRequired
	}
	return validate.Struct(nu)
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if usr, ok := sl.Current().Interface().(NewUser); ok {
		validatePassword(usr.Password, sl, usr.Name, usr.Email, usr.StudentID)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	if tag := passwordPolicyTag(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// passwordPolicyTag returns the tag of the first policy rule pwd violates, or "".
func passwordPolicyTag(pwd string, attrs ...string) string {
	var digitCount int

	// - minLen: 8
	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		// - no whitespace
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}

	// - not all numeric
	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	// - no user attrs similarity
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}
		// compare with the local part of emails as well
		parts := []string{attr}
		if i := strings.Index(attr, "@"); i > 0 {
			parts = append(parts, attr[:i])
		}
		for _, p := range parts {
			ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(p, "")).QuickRatio()
			if ratio >= pwdMaxSim {
				return pwdAttrSimTag
			}
		}
	}
	return ""
}

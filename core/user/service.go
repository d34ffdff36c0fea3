package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/likelion-sch/recruit/core"
)

var (
	NowFunc      = time.Now    // mockable
	GenerateCode = randomCode6 // mockable

	// errors
	ErrNotFound       = errors.New("user not found")
	ErrNoVerification = errors.New("email verification not found")

	ErrEmailRequired            = core.NewError("EMAIL_REQUIRED", "email is required")
	ErrEmailCodeRequired        = core.NewError("EMAIL_CODE_REQUIRED", "email and code are required")
	ErrSchoolEmailRequired      = core.NewError("SCHOOL_EMAIL_REQUIRED", "a school email address is required")
	ErrNoCode                   = core.NewError("NO_CODE", "no verification code was sent to this email")
	ErrCodeExpired              = core.NewError("EXPIRED", "verification code has expired")
	ErrCodeInvalid              = core.NewError("INVALID", "verification code is invalid")
	ErrEmailPasswordRequired    = core.NewError("EMAIL_PASSWORD_REQUIRED", "email and password are required")
	ErrProfileRequired          = core.NewError("PROFILE_REQUIRED", "name, student_id and department are required")
	ErrEmailExists              = core.NewError("EMAIL_EXISTS", "a user with this email already exists")
	ErrEmailNotVerified         = core.NewError("EMAIL_NOT_VERIFIED", "email is not verified")
	ErrEmailVerificationExpired = core.NewError("EMAIL_VERIFICATION_EXPIRED", "email verification has expired, verify again")
	ErrInvalidCredentials       = core.NewError("INVALID_CREDENTIALS", "invalid email or password")
	ErrAccountDisabled          = core.NewError("ACCOUNT_DISABLED", "account deactivated")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	VerificationRepository interface {
		CreateVerification(ctx context.Context, v EmailVerification) (EmailVerification, error)
		// GetLatestVerification returns the most recently created verification for email.
		GetLatestVerification(ctx context.Context, email string) (EmailVerification, error)
		UpdateVerification(ctx context.Context, v EmailVerification) (EmailVerification, error)
	}

	Service interface {
		SendCode(ctx context.Context, email string) (SendCodeResult, error)
		VerifyCode(ctx context.Context, email, code string) (VerifyResult, error)
		Signup(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Create(ctx context.Context, usr User, pwd string) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
	}

	service struct {
		repo    Repository
		verRepo VerificationRepository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, verRepo VerificationRepository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		verRepo: verRepo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// IsSchoolEmail reports whether email belongs to the school domain.
func IsSchoolEmail(email, domain string) bool {
	return strings.HasSuffix(email, "@"+strings.ToLower(domain))
}

func (svc *service) SendCode(ctx context.Context, email string) (SendCodeResult, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return SendCodeResult{}, ErrEmailRequired
	}
	if !IsSchoolEmail(email, svc.conf.SchoolEmailDomain) {
		return SendCodeResult{}, ErrSchoolEmailRequired
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	if err == nil && usr.EmailVerified {
		return SendCodeResult{AlreadyVerified: true, ExpiresIn: 0}, nil
	} else if err != nil && errors.Cause(err) != ErrNotFound {
		return SendCodeResult{}, errors.Wrap(err, "finding user by email")
	}

	code, err := GenerateCode()
	if err != nil {
		return SendCodeResult{}, errors.Wrap(err, "generating code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return SendCodeResult{}, errors.Wrap(err, "hashing code")
	}

	now := NowFunc().UTC()
	ttl := svc.conf.EmailCodeTTL
	if _, err = svc.verRepo.CreateVerification(ctx, EmailVerification{
		ID:        uuid.New().String(),
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return SendCodeResult{}, errors.Wrap(err, "creating verification")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      "이메일 인증 코드",
		TemplateName: "verification_code",
		TemplateData: map[string]interface{}{
			"Code":    code,
			"Minutes": int(ttl.Minutes()),
		},
	})
	return SendCodeResult{ExpiresIn: int(ttl.Seconds())}, nil
}

func (svc *service) VerifyCode(ctx context.Context, email, code string) (VerifyResult, error) {
	email = core.CleanString(email, true /* lower */)
	code = core.CleanString(code)
	if email == "" || code == "" {
		return VerifyResult{}, ErrEmailCodeRequired
	}

	ver, err := svc.verRepo.GetLatestVerification(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNoVerification {
			return VerifyResult{}, ErrNoCode
		}
		return VerifyResult{}, errors.Wrap(err, "finding latest verification")
	}
	now := NowFunc().UTC()
	if ver.IsExpired(now) {
		return VerifyResult{}, ErrCodeExpired
	}
	if !ver.CheckCode(code) {
		return VerifyResult{}, ErrCodeInvalid
	}

	ver.VerifiedAt = null.TimeFrom(now)
	if _, err = svc.verRepo.UpdateVerification(ctx, ver); err != nil {
		return VerifyResult{}, errors.Wrap(err, "updating verification")
	}

	res := VerifyResult{Verified: true}
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	switch {
	case err == nil:
		res.UserExists = true
		if !usr.EmailVerified {
			usr.EmailVerified = true
			if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
				return VerifyResult{}, errors.Wrap(err, "marking email verified")
			}
		}
	case errors.Cause(err) != ErrNotFound:
		return VerifyResult{}, errors.Wrap(err, "finding user by email")
	}
	return res, nil
}

// Signup creates an APPLICANT account for a recently verified school email.
// nu must have been validated with NewUser.Validate.
func (svc *service) Signup(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUser(ctx, GetFilter{Email: nu.Email}); err == nil {
		return User{}, ErrEmailExists
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "finding user by email")
	}

	ver, err := svc.verRepo.GetLatestVerification(ctx, nu.Email)
	if err != nil {
		if errors.Cause(err) == ErrNoVerification {
			return User{}, ErrEmailNotVerified
		}
		return User{}, errors.Wrap(err, "finding latest verification")
	}
	if !ver.VerifiedAt.Valid {
		return User{}, ErrEmailNotVerified
	}
	if NowFunc().UTC().Sub(ver.VerifiedAt.Time) > svc.conf.EmailVerificationTTL {
		return User{}, ErrEmailVerificationExpired
	}

	usr := User{
		Email:         nu.Email,
		Name:          nu.Name,
		StudentID:     nu.StudentID,
		Department:    nu.Department,
		Phone:         nu.Phone,
		Role:          RoleApplicant,
		EmailVerified: true,
		IsActive:      true,
		DateJoined:    NowFunc().UTC(),
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || pwd == "" {
		return User{}, ErrEmailPasswordRequired
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDisabled
	}

	usr.LastLogin = null.TimeFrom(NowFunc().UTC())
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Create adds a fully trusted account (admin CLI). No verification or policy check is applied.
func (svc *service) Create(ctx context.Context, usr User, pwd string) (User, error) {
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	if usr.Role == "" {
		usr.Role = RoleApplicant
	}
	if usr.DateJoined.IsZero() {
		usr.DateJoined = NowFunc().UTC()
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// randomCode6 returns a uniformly random 6 digit code.
func randomCode6() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/likelion-sch/recruit/apps/api/echo"
	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
	"github.com/likelion-sch/recruit/testutil"
)

func mockCode(t *testing.T, code string) {
	orig := user.GenerateCode
	user.GenerateCode = func() (string, error) { return code, nil }
	t.Cleanup(func() { user.GenerateCode = orig })
}

func Test_userApi_signupFlow(t *testing.T) {
	app := setup(t)
	mockCode(t, "123456")

	const email = "newbie@sch.ac.kr"
	signup := user.NewUser{
		Email:      email,
		Password:   testutil.Password,
		Name:       "새내기",
		StudentID:  "20241234",
		Department: "컴퓨터소프트웨어공학과",
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "send-code: school email required", method: http.MethodPost, path: "/api/auth/email/send-code",
			body: EmailRequest{Email: "newbie@gmail.com"}, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errDetail("SCHOOL_EMAIL_REQUIRED", "a school email address is required")),
		},
		{
			name: "signup: not verified", method: http.MethodPost, path: "/api/auth/signup",
			body: signup, wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errDetail("EMAIL_NOT_VERIFIED", "email is not verified")),
		},
		{
			name: "verify: no code", method: http.MethodPost, path: "/api/auth/email/verify",
			body: VerifyRequest{Email: email, Code: "123456"}, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errDetail("NO_CODE", "no verification code was sent to this email")),
		},
		{
			name: "send-code", method: http.MethodPost, path: "/api/auth/email/send-code",
			body: EmailRequest{Email: " NewBie@sch.ac.kr "}, wantData: []byte(`{"ok":true,"expires_in":120}`),
		},
		{
			name: "verify: wrong code", method: http.MethodPost, path: "/api/auth/email/verify",
			body: VerifyRequest{Email: email, Code: "654321"}, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errDetail("INVALID", "verification code is invalid")),
		},
		{
			name: "verify", method: http.MethodPost, path: "/api/auth/email/verify",
			body: VerifyRequest{Email: email, Code: "123456"}, wantData: []byte(`{"ok":true,"verified":true,"user_exists":false}`),
		},
		{
			name: "signup", method: http.MethodPost, path: "/api/auth/signup",
			body: signup, wantCode: http.StatusCreated, wantData: []byte(`{"ok":true,"id":1}`),
		},
		{
			name: "signup: email exists", method: http.MethodPost, path: "/api/auth/signup",
			body: signup, wantCode: http.StatusConflict,
			wantData: marshalObj(t, errDetail("EMAIL_EXISTS", "a user with this email already exists")),
		},
		{
			name: "send-code: already verified", method: http.MethodPost, path: "/api/auth/email/send-code",
			body: EmailRequest{Email: email}, wantData: []byte(`{"ok":true,"already_verified":true,"expires_in":0}`),
		},
	})

	msg, ok := app.Outbox.Last(email)
	require.True(t, ok, "verification email not sent")
	assert.Contains(t, msg.TextContent, "123456")
	assert.Len(t, app.Outbox.Sent(), 1)

	usr, err := app.UserSvc.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, user.RoleApplicant, usr.Role)
	assert.True(t, usr.EmailVerified)
}

func Test_userApi_signupValidation(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name     string
		body     user.NewUser
		wantCode string
	}{
		{
			name:     "profile required",
			body:     user.NewUser{Email: "a@sch.ac.kr", Password: testutil.Password, Name: "A"},
			wantCode: "PROFILE_REQUIRED",
		},
		{
			name:     "password too short",
			body:     user.NewUser{Email: "a@sch.ac.kr", Password: "abc", Name: "A", StudentID: "1", Department: "D"},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "password numeric",
			body:     user.NewUser{Email: "a@sch.ac.kr", Password: "1234567890", Name: "A", StudentID: "1", Department: "D"},
			wantCode: "VALIDATION_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var res httpErr
			decode(t, rec, &res)
			assert.Equal(t, tt.wantCode, res.Error)
		})
	}
}

func Test_userApi_sendCodeRateLimit(t *testing.T) {
	app := setup(t, func(conf *core.Config) {
		conf.Server.SendCodeRate = 0.001
		conf.Server.SendCodeBurst = 2
	})
	mockCode(t, "000111")

	body := EmailRequest{Email: "spam@sch.ac.kr"}
	for i := 0; i < 2; i++ {
		rec := app.do(t, http.MethodPost, "/api/auth/email/send-code", "", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := app.do(t, http.MethodPost, "/api/auth/email/send-code", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var res httpErr
	decode(t, rec, &res)
	assert.Equal(t, errDetail("TOO_MANY_REQUESTS", "too many requests"), res)
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateApplicant(t, app.UserRepo, "Hero", "hero@sch.ac.kr")
	naughty := testutil.CreateApplicant(t, app.UserRepo, "N Dog", "ndog@sch.ac.kr")
	naughty.IsActive = false
	_, err := app.UserRepo.UpdateUser(context.Background(), naughty)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{
			name: "credentials required", method: http.MethodPost, path: "/api/auth/login",
			body: LoginRequest{Email: usr.Email}, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errDetail("EMAIL_PASSWORD_REQUIRED", "email and password are required")),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body: LoginRequest{Email: usr.Email, Password: "nope-nope"}, wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errDetail("INVALID_CREDENTIALS", "invalid email or password")),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/login",
			body: LoginRequest{Email: "ghost@sch.ac.kr", Password: testutil.Password}, wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errDetail("INVALID_CREDENTIALS", "invalid email or password")),
		},
		{
			name: "account disabled", method: http.MethodPost, path: "/api/auth/login",
			body: LoginRequest{Email: naughty.Email, Password: testutil.Password}, wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errDetail("ACCOUNT_DISABLED", "account deactivated")),
		},
		{name: "logout", method: http.MethodPost, path: "/api/auth/logout", wantData: []byte(`{"ok":true}`)},
	})

	rec := app.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "HERO@sch.ac.kr", Password: testutil.Password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	decode(t, rec, &res)
	assert.True(t, res.OK)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, usr.ID, res.User.ID)

	rec = app.do(t, http.MethodGet, "/api/auth/me", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.Me
	decode(t, rec, &me)
	assert.Equal(t, usr.Email, me.Email)
	assert.False(t, me.Track.Valid)
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, app.UserRepo, "Student", "stu@sch.ac.kr", user.RoleStudent, false, testutil.Password)
	student.EducationTrack = "AI_SERVER"
	student, err := app.UserRepo.UpdateUser(context.Background(), student)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/api/auth/me", token: "not.a.token", wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errDetail("UNAUTHORIZED", "invalid or expired jwt")),
		},
		{name: "track alias", path: "/api/auth/me", token: app.token(t, student), wantData: marshalObj(t, student.Me())},
	})
	assert.Equal(t, "AI", student.Me().Track.String)
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, app.UserRepo, "Hero", "hero@sch.ac.kr", user.RoleStudent, false, testutil.Password)
	naughty := testutil.CreateApplicant(t, app.UserRepo, "N Dog", "ndog@sch.ac.kr")
	naughtyToken := app.token(t, naughty)
	naughty.IsActive = false
	_, err := app.UserRepo.UpdateUser(context.Background(), naughty)
	require.NoError(t, err)

	old := time.Now().Add(-2 * app.Conf.Server.JWTRefreshExpirationDelta).Unix()
	unrefreshable, err := app.auth.GenerateToken(app.auth.Claims(student, old))
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "inactive user", method: http.MethodPost, path: "/api/auth/token-refresh", token: naughtyToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errDetail("FORBIDDEN", "account deactivated")),
		},
		{
			name: "refresh expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: unrefreshable,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errDetail("FORBIDDEN", "refresh has expired")),
		},
		{name: "refreshed", method: http.MethodPost, path: "/api/auth/token-refresh", token: app.token(t, student)},
	})
}

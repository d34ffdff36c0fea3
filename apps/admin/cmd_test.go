package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
	"github.com/likelion-sch/recruit/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	out := new(bytes.Buffer)

	// start CLI
	cli := &commandLine{
		usrRepo: env.UserRepo,
		usrSvc:  env.UserSvc,
		appSvc:  env.AppSvc,
		out:     out,
	}
	return cli, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()

	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if !strings.Contains(err.Error(), tt.wantErrStr) {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "project_links", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env, _ := setup(t)

	existing := testutil.CreateApplicant(t, env.UserRepo, "기존 지원자", "old@sch.ac.kr")

	type extra struct {
		pwd       string
		wantEmail string
		wantRole  string
		wantStaff bool
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing name", args: []string{"adduser", "-email", "lol@sch.ac.kr"}, extra: extra{pwd: "lol"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "lol@sch.ac.kr", "-name", "Lol"}, wantErr: errHelp},
		{
			name:       "invalid role",
			args:       []string{"adduser", "-email", "lol@sch.ac.kr", "-name", "Lol", "-role", "ADMIN"},
			extra:      extra{pwd: "lol"},
			wantErrStr: "not a valid role",
		},
		{
			name:  "create staff",
			args:  []string{"adduser", "-email", " Staff@SCH.ac.kr ", "-name", "운영진", "-staff"},
			extra: extra{pwd: "staff-pwd", wantEmail: "staff@sch.ac.kr", wantRole: user.RoleInstructor, wantStaff: true},
		},
		{
			name:  "update existing",
			args:  []string{"adduser", "-email", existing.Email, "-name", "새 이름", "-role", user.RoleStudent},
			extra: extra{pwd: "new-pwd", wantEmail: existing.Email, wantRole: user.RoleStudent},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ext, _ := tt.extra.(extra)
		mockPassword(ext.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err != nil || ext.wantEmail == "" {
				return
			}

			usr, err := env.UserSvc.GetByEmail(context.Background(), ext.wantEmail)
			require.NoError(t, err)
			assert.Equal(t, ext.wantRole, usr.Role)
			assert.Equal(t, ext.wantStaff, usr.IsStaff)
			assert.True(t, usr.IsActive)
			assert.True(t, usr.EmailVerified)
			assert.NoError(t, usr.CheckPassword(ext.pwd))
		})
	}

	updated, err := env.UserSvc.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "새 이름", updated.Name)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env, _ := setup(t)

	usr := testutil.CreateApplicant(t, env.UserRepo, "User", "awe@sch.ac.kr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lol"}},
		{name: "reset with upper-cased email", args: []string{"resetpassword", "-email", strings.ToUpper(usr.Email)}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ext, _ := tt.extra.(extra)
		mockPassword(ext.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}

			refreshedUsr, err := env.UserRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
				t.Error("failed to update new password")
			}
			if err := refreshedUsr.CheckPassword(ext.pwd); err != nil {
				t.Errorf("CheckPassword() error = %v", err)
			}
		})
	}
}

func Test_commandLine_applicants(t *testing.T) {
	cli, env, out := setup(t)

	now := time.Now()
	reviewer := testutil.CreateStaff(t, env.UserRepo, "심사위원", "staff@sch.ac.kr")
	backend := testutil.CreateApplicant(t, env.UserRepo, "백엔드", "back@sch.ac.kr")
	frontend := testutil.CreateApplicant(t, env.UserRepo, "프론트", "front@sch.ac.kr")
	bApp := testutil.Submit(t, env.AppRepo, backend, application.TrackBackend, now.Add(-time.Hour))
	testutil.Submit(t, env.AppRepo, frontend, application.TrackFrontend, now)
	testutil.Score(t, env.ScoreRepo, bApp.ID, reviewer, application.KindDoc, 10, 10, 10)

	tests := []struct {
		name     string
		args     []string
		want     []string
		dontWant []string
	}{
		{
			name: "all",
			args: []string{"applicants"},
			want: []string{"page 1/1, 2 total", backend.Email, frontend.Email, "BACKEND", "30.00", "-"},
		},
		{
			name:     "filter by track",
			args:     []string{"applicants", "-track", "frontend"},
			want:     []string{"page 1/1, 1 total", frontend.Email},
			dontWant: []string{backend.Email},
		},
		{
			name:     "search",
			args:     []string{"applicants", "-q", "back"},
			want:     []string{backend.Email},
			dontWant: []string{frontend.Email},
		},
		{
			name: "paginated",
			args: []string{"applicants", "-page-size", "1"},
			want: []string{"page 1/2, 2 total", "more results: -page 2"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			require.NoError(t, cli.run(args))

			got := out.String()
			for _, s := range tt.want {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.dontWant {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func Test_commandLine_finalize(t *testing.T) {
	cli, env, out := setup(t)

	usr := testutil.CreateApplicant(t, env.UserRepo, "지원자", "app@sch.ac.kr")
	app := testutil.Submit(t, env.AppRepo, usr, application.TrackAIServer, time.Now())
	id := strconv.Itoa(app.ID)

	tests := []cliTest{
		{name: "no args", args: []string{"finalize"}, wantErr: errHelp},
		{name: "no decision", args: []string{"finalize", "-id", id}, wantErr: errHelp},
		{name: "unknown stage", args: []string{"finalize", "-id", id, "-stage", "lol", "-decision", "ACCEPTED"}, wantErrStr: "unknown stage"},
		{name: "invalid decision", args: []string{"finalize", "-id", id, "-decision", "PENDING"}, wantErr: application.ErrInvalidDecision},
		{name: "not found", args: []string{"finalize", "-id", "999", "-decision", "ACCEPTED"}, wantErr: application.ErrNotFound},
		{name: "final before doc", args: []string{"finalize", "-id", id, "-stage", "final", "-decision", "ACCEPTED"}, wantErr: application.ErrFinalGateBlocked},
		{name: "doc accepted", args: []string{"finalize", "-id", id, "-decision", "accepted"}, extra: "doc=ACCEPTED final=PENDING"},
		{name: "doc again", args: []string{"finalize", "-id", id, "-decision", "REJECTED"}, wantErr: application.ErrAlreadyFinalized},
		{name: "final accepted", args: []string{"finalize", "-id", id, "-stage", "FINAL", "-decision", "ACCEPTED"}, extra: "doc=ACCEPTED final=ACCEPTED"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.check(t, cli.run(args))
			if want, ok := tt.extra.(string); ok {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	promoted, err := env.UserSvc.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, promoted.Role)
}

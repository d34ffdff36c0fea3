package main

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
)

// isRole checks that role is one of user.AllRoles.
func isRole(role, paramName string) vala.Checker {
	return func() (bool, string) {
		for _, r := range user.AllRoles {
			if role == r {
				return true, ""
			}
		}
		return false, fmt.Sprintf("parameter was not a valid role: %s (%q)", paramName, role)
	}
}

// addUser updates or creates a verified, active account.
func (cli *commandLine) addUser(email, name, role, pwd string, isStaff bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	role = core.CleanString(role)

	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(email, "email"),
		vala.StringNotEmpty(name, "name"),
		isRole(role, "role"),
	).Check(); err != nil {
		return err
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		usr.Name = name
		usr.Role = role
		usr.IsStaff = isStaff
		usr.IsActive = true
		usr.EmailVerified = true
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
			return err
		}
	case user.ErrNotFound:
		usr = user.User{
			Email:         email,
			Name:          name,
			Role:          role,
			IsStaff:       isStaff,
			IsActive:      true,
			EmailVerified: true,
		}
		if usr, err = cli.usrSvc.Create(ctx, usr, pwd); err != nil {
			return err
		}
	default:
		return err
	}
	fmt.Fprintf(cli.out, "user %s (#%d) saved\n", usr.Email, usr.ID)
	return nil
}

package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	usrSvc  user.Service
	appSvc  application.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the database")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME [-role ROLE] [-staff] - create or update an account")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  applicants [-q TEXT] [-track TRACK] [-status STATUS] [-sort SORT] [-page N] - list applicants")
	fmt.Fprintln(cli.out, "  finalize -id ID -stage doc|final -decision ACCEPTED|REJECTED - finalize a decision")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", user.RoleInstructor, "APPLICANT, STUDENT or INSTRUCTOR.")
	addUserStaff := addUserCmd.Bool("staff", false, "Grant access to the admin console.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	applicantsCmd := flag.NewFlagSet("applicants", flag.ContinueOnError)
	applicantsQuery := applicantsCmd.String("q", "", "Search in name, email, student ID and one-liner.")
	applicantsTrack := applicantsCmd.String("track", "", "Filter by track.")
	applicantsStatus := applicantsCmd.String("status", "", "Filter by status.")
	applicantsSort := applicantsCmd.String("sort", "", "TOTAL_ASC or TOTAL_DESC; latest update first by default.")
	applicantsPage := applicantsCmd.Int("page", 1, "Page number.")
	applicantsPageSize := applicantsCmd.Int("page-size", 20, "Page size.")

	finalizeCmd := flag.NewFlagSet("finalize", flag.ContinueOnError)
	finalizeID := finalizeCmd.Int("id", 0, "The application ID.")
	finalizeStage := finalizeCmd.String("stage", string(application.StageDoc), "doc or final.")
	finalizeDecision := finalizeCmd.String("decision", "", "ACCEPTED or REJECTED.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, applicantsCmd, finalizeCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserEmail, *addUserName, *addUserRole, pwd, *addUserStaff)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "applicants":
		if err := applicantsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listApplicants(application.QueryFilter{
			Query:    *applicantsQuery,
			Track:    application.Track(*applicantsTrack),
			Status:   application.Status(*applicantsStatus),
			Sort:     application.Sort(*applicantsSort),
			Page:     *applicantsPage,
			PageSize: *applicantsPageSize,
		})

	case "finalize":
		if err := finalizeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *finalizeID == 0 || *finalizeDecision == "" {
			finalizeCmd.Usage()
			return errHelp
		}
		return cli.finalize(*finalizeID, *finalizeStage, *finalizeDecision)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
	appfs "github.com/likelion-sch/recruit/fs"
	emailsvc "github.com/likelion-sch/recruit/services/email"
	logsvc "github.com/likelion-sch/recruit/services/logger"
	"github.com/likelion-sch/recruit/storage/database"
	sqlxrepos "github.com/likelion-sch/recruit/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	xdb := sqlxrepos.NewDB(db)

	catalogue, err := application.LoadCatalogue(appfs.FS)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading question catalogue: %v", err), err)
	}

	usrRepo := sqlxrepos.NewUserRepository(xdb)
	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo, sqlxrepos.NewVerificationRepository(xdb), emailsvc.New(conf, logger), conf),
		appSvc: application.NewService(application.ServiceDeps{
			Repo:      sqlxrepos.NewApplicationRepository(xdb),
			ScoreRepo: sqlxrepos.NewScoreRepository(xdb),
			Catalogue: catalogue,
			Logger:    logger,
		}),
		out: os.Stdout,
	}

	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if errors.Cause(err) != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

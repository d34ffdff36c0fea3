package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	echoapi "github.com/likelion-sch/recruit/apps/api/echo"
	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/project"
	"github.com/likelion-sch/recruit/core/session"
	"github.com/likelion-sch/recruit/core/user"
	appfs "github.com/likelion-sch/recruit/fs"
	emailsvc "github.com/likelion-sch/recruit/services/email"
	logsvc "github.com/likelion-sch/recruit/services/logger"
	metricsvc "github.com/likelion-sch/recruit/services/metrics"
	"github.com/likelion-sch/recruit/storage/database"
	dummydb "github.com/likelion-sch/recruit/storage/database/dummy"
	boiledrepos "github.com/likelion-sch/recruit/storage/database/sqlboiler"
	sqlxrepos "github.com/likelion-sch/recruit/storage/database/sqlx"
)

type repositories struct {
	users         user.Repository
	verifications user.VerificationRepository
	applications  application.Repository
	scores        application.ScoreRepository
	settings      application.SettingsRepository
	sessions      session.Repository
	projects      project.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	repos, closeDB, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	session.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	catalogue, err := application.LoadCatalogue(appfs.FS)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading question catalogue: %v", err), err)
	}

	recorder := metricsvc.NewPrometheusRecorder(prometheus.NewRegistry())

	// set up services
	mailSvc := emailsvc.New(conf, logger)
	usrSvc := user.NewService(repos.users, repos.verifications, mailSvc, conf)
	appSvc := application.NewService(application.ServiceDeps{
		Repo:         repos.applications,
		ScoreRepo:    repos.scores,
		SettingsRepo: repos.settings,
		Catalogue:    catalogue,
		Recorder:     recorder,
		Logger:       logger,
	})
	sessionSvc := session.NewService(repos.sessions)
	projectSvc := project.NewService(repos.projects)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			AppSvc:     appSvc,
			SessionSvc: sessionSvc,
			ProjectSvc: projectSvc,
			Validate:   validate,
			Translator: translator,
			Metrics:    recorder,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepositories opens the configured database engine and returns its repositories.
func setUpRepositories(conf *core.Config) (repositories, func() error, error) {
	if conf.Database.Engine == "memory" {
		db, err := dummydb.Open()
		if err != nil {
			return repositories{}, nil, err
		}
		repos := repositories{
			users:         dummydb.NewUserRepository(db),
			verifications: dummydb.NewVerificationRepository(db),
			applications:  dummydb.NewApplicationRepository(db),
			scores:        dummydb.NewScoreRepository(db),
			settings:      dummydb.NewSettingsRepository(db),
			sessions:      dummydb.NewSessionRepository(db),
			projects:      dummydb.NewProjectRepository(db),
		}
		return repos, func() error { return nil }, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	xdb := sqlxrepos.NewDB(db)
	repos := repositories{
		users:         sqlxrepos.NewUserRepository(xdb),
		verifications: sqlxrepos.NewVerificationRepository(xdb),
		applications:  sqlxrepos.NewApplicationRepository(xdb),
		scores:        sqlxrepos.NewScoreRepository(xdb),
		settings:      boiledrepos.NewSettingsRepository(db),
		sessions:      boiledrepos.NewSessionRepository(db),
		projects:      boiledrepos.NewProjectRepository(db),
	}
	return repos, db.Close, nil
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

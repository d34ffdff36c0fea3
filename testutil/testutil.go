// Package testutil builds the in-memory application used by the package tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/project"
	"github.com/likelion-sch/recruit/core/session"
	"github.com/likelion-sch/recruit/core/user"
	appfs "github.com/likelion-sch/recruit/fs"
	emailsvc "github.com/likelion-sch/recruit/services/email"
	logsvc "github.com/likelion-sch/recruit/services/logger"
	metricsvc "github.com/likelion-sch/recruit/services/metrics"
	"github.com/likelion-sch/recruit/storage/database/dummy"
)

const Password = "sup3r-s3cret!"

// Env is a fully wired application on top of a fresh in-memory database.
type Env struct {
	Conf       *core.Config
	Logger     *logsvc.RollbarLogger
	Validate   *validator.Validate
	Translator ut.Translator
	Outbox     *emailsvc.Outbox
	Registry   *prometheus.Registry
	Metrics    *metricsvc.PrometheusRecorder

	DB           *dummydb.DB
	UserRepo     user.Repository
	VerRepo      user.VerificationRepository
	AppRepo      application.Repository
	ScoreRepo    application.ScoreRepository
	SettingsRepo application.SettingsRepository
	SessionRepo  session.Repository
	ProjectRepo  project.Repository

	UserSvc    user.Service
	AppSvc     application.Service
	SessionSvc session.Service
	ProjectSvc project.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	session.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	catalogue, err := application.LoadCatalogue(appfs.FS)
	if err != nil {
		t.Fatalf("LoadCatalogue(): %v", err)
	}
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	env := &Env{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Outbox:       emailsvc.NewOutbox(conf, logger),
		Registry:     prometheus.NewRegistry(),
		DB:           db,
		UserRepo:     dummydb.NewUserRepository(db),
		VerRepo:      dummydb.NewVerificationRepository(db),
		AppRepo:      dummydb.NewApplicationRepository(db),
		ScoreRepo:    dummydb.NewScoreRepository(db),
		SettingsRepo: dummydb.NewSettingsRepository(db),
		SessionRepo:  dummydb.NewSessionRepository(db),
		ProjectRepo:  dummydb.NewProjectRepository(db),
	}
	env.Metrics = metricsvc.NewPrometheusRecorder(env.Registry)

	env.UserSvc = user.NewService(env.UserRepo, env.VerRepo, env.Outbox, conf)
	env.AppSvc = application.NewService(application.ServiceDeps{
		Repo:         env.AppRepo,
		ScoreRepo:    env.ScoreRepo,
		SettingsRepo: env.SettingsRepo,
		Catalogue:    catalogue,
		Recorder:     env.Metrics,
		Logger:       logger,
	})
	env.SessionSvc = session.NewService(env.SessionRepo)
	env.ProjectSvc = project.NewService(env.ProjectRepo)
	return env
}

// CreateUser stores an active, verified account. An empty pwd leaves the account without password.
func CreateUser(t *testing.T, repo user.Repository, name, email, role string, isStaff bool, pwd string, joinedAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(joinedAt) > 0 {
		tstamp = joinedAt[0].UTC()
	}
	usr := user.User{
		Email:         email,
		Name:          name,
		StudentID:     "2024" + email[:3],
		Department:    "컴퓨터소프트웨어공학과",
		Role:          role,
		EmailVerified: true,
		IsActive:      true,
		IsStaff:       isStaff,
		DateJoined:    tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateApplicant(t *testing.T, repo user.Repository, name, email string) user.User {
	t.Helper()
	return CreateUser(t, repo, name, email, user.RoleApplicant, false, Password)
}

func CreateStaff(t *testing.T, repo user.Repository, name, email string) user.User {
	t.Helper()
	return CreateUser(t, repo, name, email, user.RoleInstructor, true, Password)
}

// CompleteForm returns a form answering every question of track.
func CompleteForm(track application.Track) application.Form {
	answer := "열심히 하겠습니다."
	return application.Form{
		Track:    track,
		OneLiner: "한 줄 소개",
		Essays: application.Essays{
			Motivation:                   answer,
			CommonGrowthExperience:       answer,
			CommonTimeManagement:         answer,
			CommonTeamwork:               answer,
			PlanningExperience:           answer,
			PlanningIdea:                 answer,
			AIProgrammingLevel:           answer,
			AIServiceImpression:          answer,
			BackendWebProcess:            answer,
			BackendCodeQuality:           answer,
			FrontendUIExperience:         answer,
			FrontendDesignImplementation: answer,
		},
	}
}

// Submit stores a SUBMITTED application of usr for track.
func Submit(t *testing.T, repo application.Repository, usr user.User, track application.Track, at time.Time) application.Application {
	t.Helper()

	ctx := context.Background()
	if _, err := repo.GetOrCreateApplication(ctx, usr.ID, at.UTC()); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	app, err := repo.Submit(ctx, usr.ID, CompleteForm(track), at.UTC())
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return app
}

// Score stores the reviewer's record of kind for the application.
func Score(
	t *testing.T,
	repo application.ScoreRepository,
	appID int,
	reviewer user.User,
	kind application.Kind,
	s1, s2, s3 int,
) application.ScoreRecord {
	t.Helper()

	now := time.Now().UTC()
	rec, _, err := repo.UpsertScore(context.Background(), application.ScoreRecord{
		ApplicationID: appID,
		Kind:          kind,
		Score1:        s1,
		Score2:        s2,
		Score3:        s3,
		CreatedAt:     now,
		UpdatedAt:     now,
		Reviewer:      application.Reviewer{ID: reviewer.ID},
	})
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	rec.ComputeTotal()
	return rec
}

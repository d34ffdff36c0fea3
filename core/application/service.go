package application

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("application not found")
	ErrSettingsNotFound = errors.New("notification settings not found")
)

type (
	Repository interface {
		// GetOrCreateApplication returns the user's application, creating an empty DRAFT if none exists.
		GetOrCreateApplication(ctx context.Context, userID int, now time.Time) (Application, error)
		GetApplication(ctx context.Context, id int) (Application, error)
		GetApplicationByUser(ctx context.Context, userID int) (Application, error)
		// SaveDraft and Submit only write a DRAFT application, ErrLocked otherwise.
		SaveDraft(ctx context.Context, userID int, draft Draft, now time.Time) (Application, error)
		Submit(ctx context.Context, userID int, form Form, now time.Time) (Application, error)
		// GetApplicant returns the application with its profile and averages, without score lists.
		GetApplicant(ctx context.Context, id int) (Applicant, error)
		CountApplicants(ctx context.Context, filter QueryFilter) (int, error)
		// QueryApplicants returns one page of filtered applicants ordered by filter.Sort.
		QueryApplicants(ctx context.Context, filter QueryFilter, page core.Page) ([]Applicant, error)
		UpdateStatus(ctx context.Context, id int, status Status, now time.Time) (Application, error)
		// Finalize atomically moves stage out of PENDING. A final ACCEPTED decision also promotes
		// the applicant's account to STUDENT of the application's track in the same write.
		Finalize(ctx context.Context, id int, stage Stage, d Decision, now time.Time) (Application, error)
		UpdateInterviewSchedule(ctx context.Context, id int, s InterviewSchedule, now time.Time) (Application, error)
	}

	ScoreRepository interface {
		// UpsertScore creates or updates the record keyed by (application, kind, reviewer).
		UpsertScore(ctx context.Context, rec ScoreRecord) (ScoreRecord, bool, error)
		// ListScores returns the records of the applications ordered by reviewer id.
		ListScores(ctx context.Context, applicationIDs ...int) ([]ScoreRecord, error)
	}

	SettingsRepository interface {
		GetSettings(ctx context.Context) (NotificationSettings, error)
		SaveSettings(ctx context.Context, s NotificationSettings) (NotificationSettings, error)
	}

	// Recorder observes the decisions and scores written by the Service.
	Recorder interface {
		DecisionFinalized(stage Stage, d Decision)
		ScoreSaved(kind Kind, created bool)
	}

	Service interface {
		Catalogue() *Catalogue
		My(ctx context.Context, usr user.User) (MyApplication, error)
		SaveDraft(ctx context.Context, usr user.User, draft Draft) error
		Submit(ctx context.Context, usr user.User, form Form) (Application, error)
		MyResult(ctx context.Context, usr user.User) (*Result, error)

		Query(ctx context.Context, filter QueryFilter) (ApplicantPage, error)
		Get(ctx context.Context, id int) (Applicant, error)
		UpdateStatus(ctx context.Context, id int, status Status) (Application, error)
		FinalizeDoc(ctx context.Context, id int, d Decision) (Application, error)
		FinalizeFinal(ctx context.Context, id int, d Decision) (Application, error)
		Scores(ctx context.Context, id int) (ScoreSheet, error)
		SaveScore(ctx context.Context, id int, reviewer user.User, in ScoreInput) (ScoreRecord, bool, error)
		ScheduleInterview(ctx context.Context, id int, s InterviewSchedule) (Application, error)
		Settings(ctx context.Context) (NotificationSettings, error)
		UpdateSettings(ctx context.Context, by user.User, up SettingsUpdate) (NotificationSettings, error)
	}

	ServiceDeps struct {
		Repo         Repository
		ScoreRepo    ScoreRepository
		SettingsRepo SettingsRepository
		Catalogue    *Catalogue
		Recorder     Recorder
		Logger       core.Logger
	}

	service struct {
		repo         Repository
		scoreRepo    ScoreRepository
		settingsRepo SettingsRepository
		catalogue    *Catalogue
		recorder     Recorder
		logger       core.Logger
		tracer       trace.Tracer
		settingsSF   singleflight.Group
	}
)

var _ Service = (*service)(nil)

func NewService(deps ServiceDeps) Service {
	rec := deps.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &service{
		repo:         deps.Repo,
		scoreRepo:    deps.ScoreRepo,
		settingsRepo: deps.SettingsRepo,
		catalogue:    deps.Catalogue,
		recorder:     rec,
		logger:       deps.Logger,
		tracer:       otel.Tracer("application-service"),
	}
}

// ProfileOf projects the reviewer visible account fields of usr.
func ProfileOf(usr user.User) Profile {
	return Profile{
		ID:             usr.ID,
		Email:          usr.Email,
		Name:           usr.Name,
		StudentID:      usr.StudentID,
		Department:     usr.Department,
		Phone:          usr.Phone,
		Role:           usr.Role,
		EmailVerified:  usr.EmailVerified,
		EducationTrack: usr.EducationTrack,
	}
}

func (svc *service) Catalogue() *Catalogue {
	return svc.catalogue
}

func (svc *service) My(ctx context.Context, usr user.User) (MyApplication, error) {
	app, err := svc.repo.GetOrCreateApplication(ctx, usr.ID, NowFunc().UTC())
	if err != nil {
		return MyApplication{}, errors.Wrap(err, "getting or creating application")
	}
	return app.Mine(), nil
}

// SaveDraft writes only the fields draft sets; the others keep their saved value.
func (svc *service) SaveDraft(ctx context.Context, usr user.User, draft Draft) error {
	draft.Clean()
	now := NowFunc().UTC()
	if _, err := svc.repo.GetOrCreateApplication(ctx, usr.ID, now); err != nil {
		return errors.Wrap(err, "getting or creating application")
	}
	if _, err := svc.repo.SaveDraft(ctx, usr.ID, draft, now); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return nil
}

func (svc *service) Submit(ctx context.Context, usr user.User, form Form) (Application, error) {
	form.Clean()
	now := NowFunc().UTC()
	app, err := svc.repo.GetOrCreateApplication(ctx, usr.ID, now)
	if err != nil {
		return Application{}, errors.Wrap(err, "getting or creating application")
	}
	if app.IsLocked() {
		return Application{}, ErrLocked
	}
	if err = svc.catalogue.CheckSubmission(form, ProfileOf(usr)); err != nil {
		return Application{}, err
	}
	app, err = svc.repo.Submit(ctx, usr.ID, form, now)
	if err != nil {
		return Application{}, errors.Wrap(err, "submitting application")
	}
	return app, nil
}

// MyResult returns nil when usr never started an application.
func (svc *service) MyResult(ctx context.Context, usr user.User) (*Result, error) {
	app, err := svc.repo.GetApplicationByUser(ctx, usr.ID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding application by user")
	}
	settings, err := svc.Settings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading notification settings")
	}
	res := BuildResult(app, ProfileOf(usr), settings)
	return &res, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) (ApplicantPage, error) {
	ctx, span := svc.tracer.Start(ctx, "application.Query")
	defer span.End()

	filter.Clean()
	span.SetAttributes(
		attribute.String("filter.track", string(filter.Track)),
		attribute.String("filter.status", string(filter.Status)),
		attribute.String("filter.sort", string(filter.Sort)),
		attribute.Int("filter.page", filter.Page),
	)

	count, err := svc.repo.CountApplicants(ctx, filter)
	if err != nil {
		return ApplicantPage{}, svc.fail(span, errors.Wrap(err, "counting applicants"))
	}
	page := core.NewPage(filter.Page, filter.PageSize, count)

	apps, err := svc.repo.QueryApplicants(ctx, filter, page)
	if err != nil {
		return ApplicantPage{}, svc.fail(span, errors.Wrap(err, "querying applicants"))
	}
	if len(apps) > 0 {
		ids := make([]int, 0, len(apps))
		for _, a := range apps {
			ids = append(ids, a.ID)
		}
		records, err := svc.scoreRepo.ListScores(ctx, ids...)
		if err != nil {
			return ApplicantPage{}, svc.fail(span, errors.Wrap(err, "listing scores"))
		}
		byApp := make(map[int][]ScoreRecord, len(apps))
		for _, r := range records {
			byApp[r.ApplicationID] = append(byApp[r.ApplicationID], r)
		}
		for i := range apps {
			apps[i].WithScores(byApp[apps[i].ID])
		}
	} else {
		apps = []Applicant{}
	}

	span.SetAttributes(attribute.Int("result.count", count))
	return ApplicantPage{
		Count:      count,
		Page:       page.Number,
		TotalPages: page.TotalPages,
		Results:    apps,
		HasNext:    page.HasNext(),
		HasPrev:    page.HasPrevious(),
	}, nil
}

// Get loads the applicant and its scores concurrently.
func (svc *service) Get(ctx context.Context, id int) (Applicant, error) {
	ctx, span := svc.tracer.Start(ctx, "application.Get", trace.WithAttributes(attribute.Int("application.id", id)))
	defer span.End()

	var (
		applicant Applicant
		records   []ScoreRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		applicant, err = svc.repo.GetApplicant(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = svc.scoreRepo.ListScores(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Applicant{}, ErrNotFound
		}
		return Applicant{}, svc.fail(span, errors.Wrap(err, "loading applicant"))
	}
	applicant.WithScores(records)
	return applicant, nil
}

// UpdateStatus overrides the legacy status. It does not touch the decision gates.
func (svc *service) UpdateStatus(ctx context.Context, id int, status Status) (Application, error) {
	if status != StatusAccepted && status != StatusRejected {
		return Application{}, core.NewValidationError(
			errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "status must be one of [ACCEPTED, REJECTED]"},
		)
	}
	app, err := svc.repo.UpdateStatus(ctx, id, status, NowFunc().UTC())
	if err != nil {
		return Application{}, errors.Wrap(err, "updating status")
	}
	return app, nil
}

func (svc *service) FinalizeDoc(ctx context.Context, id int, d Decision) (Application, error) {
	return svc.finalize(ctx, id, StageDoc, d)
}

func (svc *service) FinalizeFinal(ctx context.Context, id int, d Decision) (Application, error) {
	return svc.finalize(ctx, id, StageFinal, d)
}

func (svc *service) finalize(ctx context.Context, id int, stage Stage, d Decision) (Application, error) {
	ctx, span := svc.tracer.Start(ctx, "application.Finalize", trace.WithAttributes(
		attribute.Int("application.id", id),
		attribute.String("stage", string(stage)),
		attribute.String("decision", string(d)),
	))
	defer span.End()

	if !d.IsFinal() {
		return Application{}, ErrInvalidDecision
	}
	app, err := svc.repo.Finalize(ctx, id, stage, d, NowFunc().UTC())
	if err != nil {
		if _, ok := core.AsError(err); ok || errors.Cause(err) == ErrNotFound {
			span.SetAttributes(attribute.String("rejected", err.Error()))
			return Application{}, errors.Cause(err)
		}
		return Application{}, svc.fail(span, errors.Wrap(err, "finalizing "+string(stage)+" decision"))
	}
	svc.recorder.DecisionFinalized(stage, d)
	return app, nil
}

func (svc *service) Scores(ctx context.Context, id int) (ScoreSheet, error) {
	if _, err := svc.repo.GetApplication(ctx, id); err != nil {
		return ScoreSheet{}, errors.Wrap(err, "finding application")
	}
	records, err := svc.scoreRepo.ListScores(ctx, id)
	if err != nil {
		return ScoreSheet{}, errors.Wrap(err, "listing scores")
	}
	return NewScoreSheet(records), nil
}

// SaveScore upserts the reviewer's own record. The caller must have validated in.
func (svc *service) SaveScore(ctx context.Context, id int, reviewer user.User, in ScoreInput) (ScoreRecord, bool, error) {
	ctx, span := svc.tracer.Start(ctx, "application.SaveScore", trace.WithAttributes(
		attribute.Int("application.id", id),
		attribute.String("kind", string(in.Kind)),
		attribute.String("reviewer.id", strconv.Itoa(reviewer.ID)),
	))
	defer span.End()

	if _, err := svc.repo.GetApplication(ctx, id); err != nil {
		return ScoreRecord{}, false, errors.Wrap(err, "finding application")
	}

	now := NowFunc().UTC()
	rec := ScoreRecord{
		ApplicationID: id,
		Kind:          in.Kind,
		Score1:        in.Score1,
		Score2:        in.Score2,
		Score3:        in.Score3,
		Comment:       in.Comment,
		CreatedAt:     now,
		UpdatedAt:     now,
		Reviewer:      Reviewer{ID: reviewer.ID, Name: reviewer.Name, Email: reviewer.Email},
	}
	rec, created, err := svc.scoreRepo.UpsertScore(ctx, rec)
	if err != nil {
		return ScoreRecord{}, false, svc.fail(span, errors.Wrap(err, "upserting score"))
	}
	rec.ComputeTotal()
	svc.recorder.ScoreSaved(in.Kind, created)
	return rec, created, nil
}

func (svc *service) ScheduleInterview(ctx context.Context, id int, s InterviewSchedule) (Application, error) {
	s.Clean()
	app, err := svc.repo.UpdateInterviewSchedule(ctx, id, s, NowFunc().UTC())
	if err != nil {
		return Application{}, errors.Wrap(err, "updating interview schedule")
	}
	return app, nil
}

// Settings returns the notification settings, creating the defaults on first use.
// Concurrent first loads share a single get-or-create, which outlives the cancellation of
// the caller that started it.
func (svc *service) Settings(ctx context.Context) (NotificationSettings, error) {
	ch := svc.settingsSF.DoChan("settings", func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		s, err := svc.settingsRepo.GetSettings(loadCtx)
		if err == nil {
			return s, nil
		}
		if errors.Cause(err) != ErrSettingsNotFound {
			return nil, errors.Wrap(err, "getting settings")
		}
		s = DefaultNotificationSettings()
		s.UpdatedAt = NowFunc().UTC()
		return svc.settingsRepo.SaveSettings(loadCtx, s)
	})
	select {
	case <-ctx.Done():
		return NotificationSettings{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return NotificationSettings{}, res.Err
		}
		return res.Val.(NotificationSettings), nil
	}
}

func (svc *service) UpdateSettings(ctx context.Context, by user.User, up SettingsUpdate) (NotificationSettings, error) {
	current, err := svc.Settings(ctx)
	if err != nil {
		return NotificationSettings{}, err
	}
	s := up.Apply(current)
	s.UpdatedBy.SetValid(by.ID)
	s.UpdatedAt = NowFunc().UTC()
	s, err = svc.settingsRepo.SaveSettings(ctx, s)
	if err != nil {
		return NotificationSettings{}, errors.Wrap(err, "saving settings")
	}
	return s, nil
}

func (svc *service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type nopRecorder struct{}

func (nopRecorder) DecisionFinalized(Stage, Decision) {}
func (nopRecorder) ScoreSaved(Kind, bool)             {}

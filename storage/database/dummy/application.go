package dummydb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
)

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *DB) application.Repository {
	return &applicationRepository{db: db}
}

// byUser returns the stored application of userID. Callers hold a lock.
func (repo *applicationRepository) byUser(userID int) (*application.Application, bool) {
	for _, app := range repo.db.applications {
		if app.UserID == userID {
			return app, true
		}
	}
	return nil, false
}

func (repo *applicationRepository) GetOrCreateApplication(_ context.Context, userID int, now time.Time) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if app, ok := repo.byUser(userID); ok {
		return *app, nil
	}
	if _, ok := repo.db.users[userID]; !ok {
		return application.Application{}, user.ErrNotFound
	}
	app := application.Application{
		ID:        repo.db.nextID("applications"),
		UserID:    userID,
		Status:    application.StatusDraft,
		Form:      application.Form{Track: application.TrackPlanningDesign},
		Gate:      application.NewGate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplication(_ context.Context, id int) (application.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) GetApplicationByUser(_ context.Context, userID int) (application.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.byUser(userID); ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) writeDraft(userID int, draft application.Draft, now time.Time, submit bool) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	app, ok := repo.byUser(userID)
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	if app.IsLocked() {
		return application.Application{}, application.ErrLocked
	}
	draft.Apply(&app.Form)
	app.UpdatedAt = now
	if submit {
		app.Status = application.StatusSubmitted
		app.SubmittedAt = null.TimeFrom(now)
	}
	return *app, nil
}

func (repo *applicationRepository) SaveDraft(_ context.Context, userID int, draft application.Draft, now time.Time) (application.Application, error) {
	return repo.writeDraft(userID, draft, now, false)
}

func (repo *applicationRepository) Submit(_ context.Context, userID int, form application.Form, now time.Time) (application.Application, error) {
	return repo.writeDraft(userID, application.FullDraft(form), now, true)
}

// applicant joins app with its user and score averages. Callers hold a lock.
func (repo *applicationRepository) applicant(app application.Application) application.Applicant {
	a := application.Applicant{Application: app}
	if usr, ok := repo.db.users[app.UserID]; ok {
		a.User = application.ProfileOf(*usr)
	}
	var records []application.ScoreRecord
	for _, rec := range repo.db.scores {
		if rec.ApplicationID == app.ID {
			records = append(records, *rec)
		}
	}
	a.Averages = application.Aggregate(records)
	return a
}

func (repo *applicationRepository) GetApplicant(_ context.Context, id int) (application.Applicant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	app, ok := repo.db.applications[id]
	if !ok {
		return application.Applicant{}, application.ErrNotFound
	}
	return repo.applicant(*app), nil
}

// filter returns the applicants matching filter in its sort order. Callers hold a lock.
func (repo *applicationRepository) filter(filter application.QueryFilter) []application.Applicant {
	apps := make([]application.Applicant, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		a := repo.applicant(*app)
		if filter.Matches(a) {
			apps = append(apps, a)
		}
	}
	application.SortApplicants(apps, filter.Sort)
	return apps
}

func (repo *applicationRepository) CountApplicants(_ context.Context, filter application.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *applicationRepository) QueryApplicants(_ context.Context, filter application.QueryFilter, page core.Page) ([]application.Applicant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	apps := repo.filter(filter)
	start := page.Offset()
	if start >= len(apps) {
		return []application.Applicant{}, nil
	}
	end := start + page.Limit()
	if end > len(apps) {
		end = len(apps)
	}
	return apps[start:end], nil
}

func (repo *applicationRepository) UpdateStatus(_ context.Context, id int, status application.Status, now time.Time) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	app, ok := repo.db.applications[id]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = now
	return *app, nil
}

func (repo *applicationRepository) Finalize(_ context.Context, id int, stage application.Stage, d application.Decision, now time.Time) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.applications[id]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	app := *stored
	if err := app.Gate.Finalize(stage, d, now); err != nil {
		return application.Application{}, err
	}
	app.UpdatedAt = now

	if stage == application.StageFinal && d == application.DecisionAccepted {
		if usr, ok := repo.db.users[app.UserID]; ok {
			promoted := *usr
			promoted.Role = user.RoleStudent
			promoted.EducationTrack = string(app.Track)
			repo.db.users[promoted.ID] = &promoted
		}
	}
	repo.db.applications[id] = &app
	return app, nil
}

func (repo *applicationRepository) UpdateInterviewSchedule(_ context.Context, id int, s application.InterviewSchedule, now time.Time) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	app, ok := repo.db.applications[id]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	app.PersonalInterviewDatetime = s.Datetime
	app.PersonalInterviewLocation = s.Location
	app.UpdatedAt = now
	return *app, nil
}

type scoreRepository struct {
	db *DB
}

var _ application.ScoreRepository = (*scoreRepository)(nil)

func NewScoreRepository(db *DB) application.ScoreRepository {
	return &scoreRepository{db: db}
}

// withReviewer fills the reviewer's name and email. Callers hold a lock.
func (repo *scoreRepository) withReviewer(rec application.ScoreRecord) application.ScoreRecord {
	if usr, ok := repo.db.users[rec.Reviewer.ID]; ok {
		rec.Reviewer.Name = usr.Name
		rec.Reviewer.Email = usr.Email
	}
	return rec
}

func (repo *scoreRepository) UpsertScore(_ context.Context, rec application.ScoreRecord) (application.ScoreRecord, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.applications[rec.ApplicationID]; !ok {
		return application.ScoreRecord{}, false, application.ErrNotFound
	}
	for _, old := range repo.db.scores {
		if old.ApplicationID == rec.ApplicationID && old.Kind == rec.Kind && old.Reviewer.ID == rec.Reviewer.ID {
			old.Score1, old.Score2, old.Score3 = rec.Score1, rec.Score2, rec.Score3
			old.Comment = rec.Comment
			old.UpdatedAt = rec.UpdatedAt
			return repo.withReviewer(*old), false, nil
		}
	}
	rec.ID = repo.db.nextID("application_scores")
	rec = repo.withReviewer(rec)
	repo.db.scores[rec.ID] = &rec
	return rec, true, nil
}

func (repo *scoreRepository) ListScores(_ context.Context, applicationIDs ...int) ([]application.ScoreRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		wanted[id] = true
	}
	records := make([]application.ScoreRecord, 0)
	for _, rec := range repo.db.scores {
		if wanted[rec.ApplicationID] {
			records = append(records, repo.withReviewer(*rec))
		}
	}
	sortScores(records)
	return records, nil
}

type settingsRepository struct {
	db *DB
}

var _ application.SettingsRepository = (*settingsRepository)(nil)

func NewSettingsRepository(db *DB) application.SettingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(_ context.Context) (application.NotificationSettings, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.settings == nil {
		return application.NotificationSettings{}, application.ErrSettingsNotFound
	}
	return *repo.db.settings, nil
}

func (repo *settingsRepository) SaveSettings(_ context.Context, s application.NotificationSettings) (application.NotificationSettings, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.settings = &s
	return s, nil
}

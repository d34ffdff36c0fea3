package application_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
	"github.com/likelion-sch/recruit/testutil"
)

type call struct {
	stage    application.Stage
	decision application.Decision
	kind     application.Kind
	created  bool
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *fakeRecorder) DecisionFinalized(stage application.Stage, d application.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{stage: stage, decision: d})
}

func (r *fakeRecorder) ScoreSaved(kind application.Kind, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind: kind, created: created})
}

// newService wires a service on env's repositories with a recorder the test can inspect.
func newService(t *testing.T) (*testutil.Env, application.Service, *fakeRecorder) {
	env := testutil.NewEnv(t)
	rec := new(fakeRecorder)
	svc := application.NewService(application.ServiceDeps{
		Repo:         env.AppRepo,
		ScoreRepo:    env.ScoreRepo,
		SettingsRepo: env.SettingsRepo,
		Catalogue:    env.AppSvc.Catalogue(),
		Recorder:     rec,
		Logger:       env.Logger,
	})
	return env, svc, rec
}

func TestService_Submit(t *testing.T) {
	env, svc, _ := newService(t)
	ctx := context.Background()
	usr := testutil.CreateApplicant(t, env.UserRepo, "지원자", "app@sch.ac.kr")

	my, err := svc.My(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, application.StatusDraft, my.Status)

	form := testutil.CompleteForm(application.TrackBackend)
	form.BackendCodeQuality = "  "
	require.NoError(t, svc.SaveDraft(ctx, usr, application.FullDraft(form)))

	_, err = svc.Submit(ctx, usr, form)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "backend_code_quality", verr.Fields[0].Field)

	noProfile := usr
	noProfile.StudentID = ""
	_, err = svc.Submit(ctx, noProfile, testutil.CompleteForm(application.TrackBackend))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "student_id", verr.Fields[0].Field)

	app, err := svc.Submit(ctx, usr, testutil.CompleteForm(application.TrackBackend))
	require.NoError(t, err)
	assert.Equal(t, application.StatusSubmitted, app.Status)
	assert.True(t, app.SubmittedAt.Valid)
	assert.Equal(t, application.NewGate(), app.Gate)

	_, err = svc.Submit(ctx, usr, testutil.CompleteForm(application.TrackFrontend))
	assert.Equal(t, application.ErrLocked, errors.Cause(err))
	assert.Equal(t, application.ErrLocked, errors.Cause(svc.SaveDraft(ctx, usr, application.FullDraft(form))))
}

func TestService_SaveDraftKeepsUnsetFields(t *testing.T) {
	env, svc, _ := newService(t)
	ctx := context.Background()
	usr := testutil.CreateApplicant(t, env.UserRepo, "지원자", "app@sch.ac.kr")

	var first application.Draft
	require.NoError(t, json.Unmarshal([]byte(`{"track":"BACKEND","motivation":" 재밌어서 "}`), &first))
	require.NoError(t, svc.SaveDraft(ctx, usr, first))

	var second application.Draft
	require.NoError(t, json.Unmarshal([]byte(`{"experience":"동아리 활동"}`), &second))
	require.NoError(t, svc.SaveDraft(ctx, usr, second))

	my, err := svc.My(ctx, usr)
	require.NoError(t, err)
	require.NotNil(t, my.Draft)
	assert.Equal(t, application.TrackBackend, my.Draft.Track)
	assert.Equal(t, "재밌어서", my.Draft.Motivation)
	assert.Equal(t, "동아리 활동", my.Draft.Experience)

	// an explicit empty value clears the field, a blank track is ignored
	var third application.Draft
	require.NoError(t, json.Unmarshal([]byte(`{"track":"","motivation":""}`), &third))
	require.NoError(t, svc.SaveDraft(ctx, usr, third))

	my, err = svc.My(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, application.TrackBackend, my.Draft.Track)
	assert.Empty(t, my.Draft.Motivation)
	assert.Equal(t, "동아리 활동", my.Draft.Experience)
}

func TestService_QueryAndGet(t *testing.T) {
	env, svc, _ := newService(t)
	ctx := context.Background()
	now := time.Now()

	r1 := testutil.CreateStaff(t, env.UserRepo, "가심사", "r1@sch.ac.kr")
	r2 := testutil.CreateStaff(t, env.UserRepo, "나심사", "r2@sch.ac.kr")
	a1 := testutil.Submit(t, env.AppRepo, testutil.CreateApplicant(t, env.UserRepo, "일", "one@sch.ac.kr"), application.TrackBackend, now.Add(-3*time.Hour))
	a2 := testutil.Submit(t, env.AppRepo, testutil.CreateApplicant(t, env.UserRepo, "이", "two@sch.ac.kr"), application.TrackFrontend, now.Add(-2*time.Hour))
	a3 := testutil.Submit(t, env.AppRepo, testutil.CreateApplicant(t, env.UserRepo, "삼", "three@sch.ac.kr"), application.TrackAIServer, now.Add(-time.Hour))

	// a1: doc 60, interview 40 -> total 50
	testutil.Score(t, env.ScoreRepo, a1.ID, r2, application.KindDoc, 30, 20, 10)
	testutil.Score(t, env.ScoreRepo, a1.ID, r1, application.KindDoc, 30, 20, 10)
	testutil.Score(t, env.ScoreRepo, a1.ID, r1, application.KindInterview, 20, 10, 10)
	// a2: doc only -> no total
	testutil.Score(t, env.ScoreRepo, a2.ID, r1, application.KindDoc, 40, 30, 20)
	// a3: 0 is a value
	testutil.Score(t, env.ScoreRepo, a3.ID, r1, application.KindDoc, 0, 0, 0)
	testutil.Score(t, env.ScoreRepo, a3.ID, r1, application.KindInterview, 0, 0, 0)

	ids := func(page application.ApplicantPage) []int {
		out := make([]int, 0, len(page.Results))
		for _, a := range page.Results {
			out = append(out, a.ID)
		}
		return out
	}

	tests := []struct {
		name      string
		filter    application.QueryFilter
		wantIDs   []int
		wantCount int
		wantPages int
	}{
		{name: "latest update first", filter: application.QueryFilter{}, wantIDs: []int{a3.ID, a2.ID, a1.ID}, wantCount: 3, wantPages: 1},
		{name: "total desc, no value last", filter: application.QueryFilter{Sort: "total_desc"}, wantIDs: []int{a1.ID, a3.ID, a2.ID}, wantCount: 3, wantPages: 1},
		{name: "total asc, no value first", filter: application.QueryFilter{Sort: "TOTAL_ASC"}, wantIDs: []int{a2.ID, a3.ID, a1.ID}, wantCount: 3, wantPages: 1},
		{name: "track", filter: application.QueryFilter{Track: "frontend"}, wantIDs: []int{a2.ID}, wantCount: 1, wantPages: 1},
		{name: "all track", filter: application.QueryFilter{Track: "all", Status: "ALL"}, wantIDs: []int{a3.ID, a2.ID, a1.ID}, wantCount: 3, wantPages: 1},
		{name: "search", filter: application.QueryFilter{Query: "THREE"}, wantIDs: []int{a3.ID}, wantCount: 1, wantPages: 1},
		{name: "no match", filter: application.QueryFilter{Status: application.StatusDraft}, wantIDs: []int{}, wantCount: 0, wantPages: 1},
		{name: "second page", filter: application.QueryFilter{Page: 2, PageSize: 2}, wantIDs: []int{a1.ID}, wantCount: 3, wantPages: 2},
		{name: "clamped page", filter: application.QueryFilter{Page: 9, PageSize: 2}, wantIDs: []int{a1.ID}, wantCount: 3, wantPages: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(page))
			assert.Equal(t, tt.wantCount, page.Count)
			assert.Equal(t, tt.wantPages, page.TotalPages)
		})
	}

	page, err := svc.Query(ctx, application.QueryFilter{Sort: application.SortTotalDesc})
	require.NoError(t, err)
	first := page.Results[0]
	assert.Equal(t, 60.0, first.DocAvg.Float64)
	assert.Equal(t, 40.0, first.InterviewAvg.Float64)
	assert.Equal(t, 50.0, first.TotalAvg.Float64)
	assert.Equal(t, 2, first.DocCount)
	assert.True(t, page.Results[1].TotalAvg.Valid, "zero totals are values")
	assert.False(t, page.Results[2].TotalAvg.Valid)

	got, err := svc.Get(ctx, a1.ID)
	require.NoError(t, err)
	require.Len(t, got.DocSlots, 3)
	assert.Equal(t, r1.ID, int(got.DocSlots[0].ReviewerID.Int))
	assert.Equal(t, r2.ID, int(got.DocSlots[1].ReviewerID.Int))
	assert.False(t, got.DocSlots[2].Filled)
	assert.Len(t, got.InterviewSlots, 3)
	assert.Equal(t, "one@sch.ac.kr", got.User.Email)

	_, err = svc.Get(ctx, 999)
	assert.Equal(t, application.ErrNotFound, err)
}

func TestService_SaveScore(t *testing.T) {
	env, svc, rec := newService(t)
	ctx := context.Background()

	reviewer := testutil.CreateStaff(t, env.UserRepo, "심사", "r@sch.ac.kr")
	app := testutil.Submit(t, env.AppRepo, testutil.CreateApplicant(t, env.UserRepo, "지원", "a@sch.ac.kr"), application.TrackBackend, time.Now())

	in := application.ScoreInput{Kind: application.KindDoc, Score1: 40, Score2: 30, Score3: 20, Comment: "좋음"}
	got, created, err := svc.SaveScore(ctx, app.ID, reviewer, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 90, got.Total)

	in.Score1 = 10
	got, created, err = svc.SaveScore(ctx, app.ID, reviewer, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 60, got.Total)

	_, _, err = svc.SaveScore(ctx, 999, reviewer, in)
	assert.Equal(t, application.ErrNotFound, errors.Cause(err))

	sheet, err := svc.Scores(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, sheet.Doc, 1)
	assert.Empty(t, sheet.Interview)

	assert.Equal(t, []call{{kind: application.KindDoc, created: true}, {kind: application.KindDoc}}, rec.calls)
}

func TestService_Finalize(t *testing.T) {
	env, svc, rec := newService(t)
	ctx := context.Background()

	usr := testutil.CreateApplicant(t, env.UserRepo, "지원", "a@sch.ac.kr")
	other := testutil.CreateApplicant(t, env.UserRepo, "탈락", "b@sch.ac.kr")
	app := testutil.Submit(t, env.AppRepo, usr, application.TrackPlanningDesign, time.Now())
	rejected := testutil.Submit(t, env.AppRepo, other, application.TrackBackend, time.Now())

	_, err := svc.FinalizeDoc(ctx, app.ID, application.DecisionPending)
	assert.Equal(t, application.ErrInvalidDecision, err)
	_, err = svc.FinalizeFinal(ctx, app.ID, application.DecisionAccepted)
	assert.Equal(t, application.ErrFinalGateBlocked, err)
	_, err = svc.FinalizeDoc(ctx, 999, application.DecisionAccepted)
	assert.Equal(t, application.ErrNotFound, err)

	got, err := svc.FinalizeDoc(ctx, app.ID, application.DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, application.DecisionAccepted, got.DocDecision)
	assert.True(t, got.DocFinalizedAt.Valid)
	assert.Equal(t, application.StatusSubmitted, got.Status, "decisions leave the status alone")

	_, err = svc.FinalizeDoc(ctx, app.ID, application.DecisionRejected)
	assert.Equal(t, application.ErrAlreadyFinalized, err)

	got, err = svc.FinalizeFinal(ctx, app.ID, application.DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, application.DecisionAccepted, got.FinalDecision)
	assert.True(t, got.FinalizedAt.Valid)

	promoted, err := env.UserSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, promoted.Role)
	assert.Equal(t, string(application.TrackPlanningDesign), promoted.EducationTrack)

	_, err = svc.FinalizeDoc(ctx, rejected.ID, application.DecisionRejected)
	require.NoError(t, err)
	_, err = svc.FinalizeFinal(ctx, rejected.ID, application.DecisionAccepted)
	assert.Equal(t, application.ErrFinalGateBlocked, err)

	stillApplicant, err := env.UserSvc.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleApplicant, stillApplicant.Role)

	assert.Equal(t, []call{
		{stage: application.StageDoc, decision: application.DecisionAccepted},
		{stage: application.StageFinal, decision: application.DecisionAccepted},
		{stage: application.StageDoc, decision: application.DecisionRejected},
	}, rec.calls)
}

func TestService_UpdateStatus(t *testing.T) {
	env, svc, _ := newService(t)
	ctx := context.Background()
	app := testutil.Submit(t, env.AppRepo, testutil.CreateApplicant(t, env.UserRepo, "지원", "a@sch.ac.kr"), application.TrackBackend, time.Now())

	_, err := svc.UpdateStatus(ctx, app.ID, application.StatusDraft)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Fields[0].Field)

	got, err := svc.UpdateStatus(ctx, app.ID, application.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, got.Status)
	assert.Equal(t, application.NewGate(), got.Gate, "status leaves the decisions alone")
}

// slowSettings blocks every load until release is closed and records the context
// error seen by the first one.
type slowSettings struct {
	application.SettingsRepository
	started   chan struct{}
	release   chan struct{}
	firstDone chan struct{}
	firstErr  error
	once      sync.Once
}

func (r *slowSettings) GetSettings(ctx context.Context) (application.NotificationSettings, error) {
	first := false
	r.once.Do(func() {
		first = true
		close(r.started)
	})
	<-r.release
	if first {
		r.firstErr = ctx.Err()
		close(r.firstDone)
	}
	if err := ctx.Err(); err != nil {
		return application.NotificationSettings{}, err
	}
	return r.SettingsRepository.GetSettings(ctx)
}

func TestService_SettingsSurvivesCancelledCaller(t *testing.T) {
	env := testutil.NewEnv(t)
	repo := &slowSettings{
		SettingsRepository: env.SettingsRepo,
		started:            make(chan struct{}),
		release:            make(chan struct{}),
		firstDone:          make(chan struct{}),
	}
	svc := application.NewService(application.ServiceDeps{
		Repo:         env.AppRepo,
		ScoreRepo:    env.ScoreRepo,
		SettingsRepo: repo,
		Catalogue:    env.AppSvc.Catalogue(),
		Logger:       env.Logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Settings(ctx)
		firstErr <- err
	}()
	<-repo.started

	cancel()
	assert.Equal(t, context.Canceled, <-firstErr, "the cancelled caller returns early")

	close(repo.release)
	<-repo.firstDone
	assert.NoError(t, repo.firstErr, "the shared load is not cancelled with its first caller")

	s, err := svc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, application.DefaultNotificationSettings().InterviewLocation, s.InterviewLocation)
}

func TestService_SettingsAndResult(t *testing.T) {
	env, svc, _ := newService(t)
	ctx := context.Background()
	staff := testutil.CreateStaff(t, env.UserRepo, "운영진", "staff@sch.ac.kr")
	usr := testutil.CreateApplicant(t, env.UserRepo, "지원", "a@sch.ac.kr")

	res, err := svc.MyResult(ctx, usr)
	require.NoError(t, err)
	assert.Nil(t, res, "no application, no result")

	// concurrent first loads create the defaults once
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := svc.Settings(ctx)
			assert.NoError(t, err)
			assert.Equal(t, application.DefaultNotificationSettings().InterviewLocation, s.InterviewLocation)
		}()
	}
	wg.Wait()

	closed := false
	location := "  학생회관 301호 "
	s, err := svc.UpdateSettings(ctx, staff, application.SettingsUpdate{FinalResultOpen: &closed, InterviewLocation: &location})
	require.NoError(t, err)
	assert.Equal(t, "학생회관 301호", s.InterviewLocation)
	assert.False(t, s.FinalResultOpen)
	assert.True(t, s.DocResultOpen)
	assert.Equal(t, staff.ID, s.UpdatedBy.Int)

	app := testutil.Submit(t, env.AppRepo, usr, application.TrackFrontend, time.Now())
	_, err = svc.FinalizeDoc(ctx, app.ID, application.DecisionAccepted)
	require.NoError(t, err)
	_, err = svc.FinalizeFinal(ctx, app.ID, application.DecisionRejected)
	require.NoError(t, err)
	_, err = svc.ScheduleInterview(ctx, app.ID, application.InterviewSchedule{Datetime: " 3월 5일 14:00 "})
	require.NoError(t, err)

	res, err = svc.MyResult(ctx, usr)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, application.DecisionAccepted, res.DocDecision)
	assert.Equal(t, application.DecisionPending, res.FinalDecision, "final results are not open")
	assert.Equal(t, "3월 5일 14:00", res.InterviewDate)
	assert.Equal(t, "학생회관 301호", res.InterviewLocation)
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
)

// applicantsQuery selects applications joined with their user and score averages.
// The averages are computed over every record, regardless of the page.
const applicantsQuery = `
SELECT a.*,
	u.email AS u_email, u.name AS u_name, u.student_id AS u_student_id, u.department AS u_department,
	u.phone AS u_phone, u.role AS u_role, u.email_verified AS u_email_verified,
	u.education_track AS u_education_track,
	s.doc_avg, s.interview_avg, (s.doc_avg + s.interview_avg) / 2 AS total_avg,
	COALESCE(s.doc_count, 0) AS doc_count, COALESCE(s.interview_count, 0) AS interview_count
FROM applications a
JOIN "users" u ON u.id = a.user_id
LEFT JOIN (
	SELECT application_id,
		AVG(score1 + score2 + score3) FILTER (WHERE kind = 'DOC')::float8 AS doc_avg,
		AVG(score1 + score2 + score3) FILTER (WHERE kind = 'INTERVIEW')::float8 AS interview_avg,
		COUNT(*) FILTER (WHERE kind = 'DOC') AS doc_count,
		COUNT(*) FILTER (WHERE kind = 'INTERVIEW') AS interview_count
	FROM application_scores
	GROUP BY application_id
) s ON s.application_id = a.id`

type (
	// applicantRow is a flat row of applicantsQuery.
	applicantRow struct {
		application.Application
		application.Averages

		UEmail          string `db:"u_email"`
		UName           string `db:"u_name"`
		UStudentID      string `db:"u_student_id"`
		UDepartment     string `db:"u_department"`
		UPhone          string `db:"u_phone"`
		URole           string `db:"u_role"`
		UEmailVerified  bool   `db:"u_email_verified"`
		UEducationTrack string `db:"u_education_track"`
	}

	draftArgs struct {
		application.Form
		UserID int       `db:"user_id"`
		Now    time.Time `db:"now"`
	}
)

func (row applicantRow) applicant() application.Applicant {
	return application.Applicant{
		Application: row.Application,
		Averages:    row.Averages,
		User: application.Profile{
			ID:             row.UserID,
			Email:          row.UEmail,
			Name:           row.UName,
			StudentID:      row.UStudentID,
			Department:     row.UDepartment,
			Phone:          row.UPhone,
			Role:           row.URole,
			EmailVerified:  row.UEmailVerified,
			EducationTrack: row.UEducationTrack,
		},
	}
}

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *sqlx.DB) application.Repository {
	return &applicationRepository{db: db}
}

func getApplication(ctx context.Context, q sqlx.QueryerContext, cond string, arg interface{}) (application.Application, error) {
	var app application.Application
	if err := sqlx.GetContext(ctx, q, &app, `SELECT * FROM applications WHERE `+cond, arg); err != nil {
		if err == sql.ErrNoRows {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, errors.Wrap(err, "selecting application")
	}
	return app, nil
}

func (repo *applicationRepository) GetOrCreateApplication(ctx context.Context, userID int, now time.Time) (application.Application, error) {
	q := `INSERT INTO applications (user_id, track, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, userID, application.TrackPlanningDesign, application.StatusDraft, now); err != nil {
		if pqCode(err) == foreignKeyViolation {
			return application.Application{}, user.ErrNotFound
		}
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return getApplication(ctx, repo.db, "user_id = $1", userID)
}

func (repo *applicationRepository) GetApplication(ctx context.Context, id int) (application.Application, error) {
	return getApplication(ctx, repo.db, "id = $1", id)
}

func (repo *applicationRepository) GetApplicationByUser(ctx context.Context, userID int) (application.Application, error) {
	return getApplication(ctx, repo.db, "user_id = $1", userID)
}

// draftQuery updates the given columns of a DRAFT application only.
// The status check and the write are one statement.
func draftQuery(columns []string, submit bool) string {
	set := "updated_at = :now"
	if len(columns) > 0 {
		set = setClause(columns) + ", " + set
	}
	if submit {
		set += fmt.Sprintf(", status = '%s', submitted_at = :now", application.StatusSubmitted)
	}
	return `UPDATE applications SET ` + set + ` WHERE user_id = :user_id AND status = '` +
		string(application.StatusDraft) + `' RETURNING *`
}

func (repo *applicationRepository) writeDraft(ctx context.Context, userID int, draft application.Draft, now time.Time, submit bool) (application.Application, error) {
	stmt, err := repo.db.PrepareNamedContext(ctx, draftQuery(draft.Fields, submit))
	if err != nil {
		return application.Application{}, errors.Wrap(err, "preparing draft update")
	}
	defer func() { _ = stmt.Close() }()

	var app application.Application
	err = stmt.GetContext(ctx, &app, draftArgs{Form: draft.Form, UserID: userID, Now: now})
	if err == sql.ErrNoRows {
		if _, err = repo.GetApplicationByUser(ctx, userID); err != nil {
			return application.Application{}, err
		}
		return application.Application{}, application.ErrLocked
	}
	if err != nil {
		return application.Application{}, errors.Wrap(err, "updating draft")
	}
	return app, nil
}

func (repo *applicationRepository) SaveDraft(ctx context.Context, userID int, draft application.Draft, now time.Time) (application.Application, error) {
	return repo.writeDraft(ctx, userID, draft, now, false)
}

func (repo *applicationRepository) Submit(ctx context.Context, userID int, form application.Form, now time.Time) (application.Application, error) {
	return repo.writeDraft(ctx, userID, application.FullDraft(form), now, true)
}

func (repo *applicationRepository) GetApplicant(ctx context.Context, id int) (application.Applicant, error) {
	var row applicantRow
	if err := repo.db.GetContext(ctx, &row, applicantsQuery+` WHERE a.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return application.Applicant{}, application.ErrNotFound
		}
		return application.Applicant{}, errors.Wrap(err, "selecting applicant")
	}
	return row.applicant(), nil
}

// applicantsWhere renders the filter over the columns of applicantsQuery wrapped as "applicants".
func applicantsWhere(filter application.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Track != "" {
		args = append(args, filter.Track)
		conds = append(conds, fmt.Sprintf("track = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, containsPattern(filter.Query))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(u_email ILIKE $%d OR u_name ILIKE $%d OR u_student_id ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo *applicationRepository) CountApplicants(ctx context.Context, filter application.QueryFilter) (int, error) {
	where, args := applicantsWhere(filter)
	var count int
	q := `SELECT COUNT(*) FROM (` + applicantsQuery + `) applicants` + where
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting applicants")
	}
	return count, nil
}

func (repo *applicationRepository) QueryApplicants(ctx context.Context, filter application.QueryFilter, page core.Page) ([]application.Applicant, error) {
	where, args := applicantsWhere(filter)
	orderings := filter.Sort.Orderings()
	order := make([]string, 0, len(orderings))
	for _, o := range orderings {
		order = append(order, o.String())
	}
	args = append(args, page.Limit(), page.Offset())
	q := fmt.Sprintf(`SELECT * FROM (%s) applicants%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		applicantsQuery, where, strings.Join(order, ", "), len(args)-1, len(args))

	var rows []applicantRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting applicants")
	}
	apps := make([]application.Applicant, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.applicant())
	}
	return apps, nil
}

func (repo *applicationRepository) UpdateStatus(ctx context.Context, id int, status application.Status, now time.Time) (application.Application, error) {
	var app application.Application
	q := `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3 RETURNING *`
	if err := repo.db.GetContext(ctx, &app, q, status, now, id); err != nil {
		if err == sql.ErrNoRows {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, errors.Wrap(err, "updating status")
	}
	return app, nil
}

const promoteQuery = `UPDATE "users" SET role = $1, education_track = $2 WHERE id = $3`

// finalizeQuery is the conditional update of stage. It only matches an application whose
// gate allows the transition.
func finalizeQuery(stage application.Stage) (string, error) {
	switch stage {
	case application.StageDoc:
		return `UPDATE applications SET doc_decision = $1, doc_finalized_at = $2, updated_at = $2
			WHERE id = $3 AND doc_decision = 'PENDING' RETURNING *`, nil
	case application.StageFinal:
		return `UPDATE applications SET final_decision = $1, finalized_at = $2, updated_at = $2
			WHERE id = $3 AND doc_decision = 'ACCEPTED' AND final_decision = 'PENDING' RETURNING *`, nil
	}
	return "", errors.Errorf("unknown stage %q", stage)
}

// Finalize writes the decision with a conditional update, so concurrent finalizations of the
// same stage cannot both succeed. When the update matches no row the current gate tells why.
func (repo *applicationRepository) Finalize(ctx context.Context, id int, stage application.Stage, d application.Decision, now time.Time) (application.Application, error) {
	q, err := finalizeQuery(stage)
	if err != nil {
		return application.Application{}, err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "beginning transaction")
	}
	defer rollback(tx)

	var app application.Application
	if err = tx.GetContext(ctx, &app, q, d, now, id); err != nil {
		if err != sql.ErrNoRows {
			return application.Application{}, errors.Wrap(err, "finalizing decision")
		}
		current, err := getApplication(ctx, tx, "id = $1", id)
		if err != nil {
			return application.Application{}, err
		}
		if err = current.Gate.Check(stage, d); err != nil {
			return application.Application{}, err
		}
		return application.Application{}, errors.New("finalize matched no row")
	}

	if stage == application.StageFinal && d == application.DecisionAccepted {
		if _, err = tx.ExecContext(ctx, promoteQuery, user.RoleStudent, app.Track, app.UserID); err != nil {
			return application.Application{}, errors.Wrap(err, "promoting user")
		}
	}
	if err = tx.Commit(); err != nil {
		return application.Application{}, errors.Wrap(err, "committing finalize")
	}
	return app, nil
}

func (repo *applicationRepository) UpdateInterviewSchedule(ctx context.Context, id int, s application.InterviewSchedule, now time.Time) (application.Application, error) {
	var app application.Application
	q := `UPDATE applications SET personal_interview_datetime = $1, personal_interview_location = $2, updated_at = $3
		WHERE id = $4 RETURNING *`
	if err := repo.db.GetContext(ctx, &app, q, s.Datetime, s.Location, now, id); err != nil {
		if err == sql.ErrNoRows {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, errors.Wrap(err, "updating interview schedule")
	}
	return app, nil
}

type (
	scoreRepository struct {
		db *sqlx.DB
	}

	scoreRow struct {
		application.ScoreRecord
		ReviewerID    int    `db:"reviewer_id"`
		ReviewerName  string `db:"reviewer_name"`
		ReviewerEmail string `db:"reviewer_email"`
		Created       bool   `db:"created"`
	}
)

func (row scoreRow) record() application.ScoreRecord {
	rec := row.ScoreRecord
	rec.Reviewer = application.Reviewer{ID: row.ReviewerID, Name: row.ReviewerName, Email: row.ReviewerEmail}
	return rec
}

var _ application.ScoreRepository = (*scoreRepository)(nil)

func NewScoreRepository(db *sqlx.DB) application.ScoreRepository {
	return &scoreRepository{db: db}
}

func (repo *scoreRepository) UpsertScore(ctx context.Context, rec application.ScoreRecord) (application.ScoreRecord, bool, error) {
	q := `
WITH upserted AS (
	INSERT INTO application_scores
		(application_id, reviewer_id, kind, score1, score2, score3, comment, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (application_id, reviewer_id, kind) DO UPDATE SET
		score1 = EXCLUDED.score1, score2 = EXCLUDED.score2, score3 = EXCLUDED.score3,
		comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
	RETURNING *, (xmax = 0) AS created
)
SELECT s.id, s.application_id, s.kind, s.score1, s.score2, s.score3, s.comment, s.created_at, s.updated_at,
	s.reviewer_id, u.name AS reviewer_name, u.email AS reviewer_email, s.created
FROM upserted s JOIN "users" u ON u.id = s.reviewer_id`

	var row scoreRow
	err := repo.db.GetContext(ctx, &row, q,
		rec.ApplicationID, rec.Reviewer.ID, rec.Kind, rec.Score1, rec.Score2, rec.Score3, rec.Comment,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return application.ScoreRecord{}, false, application.ErrNotFound
		}
		return application.ScoreRecord{}, false, errors.Wrap(err, "upserting score")
	}
	return row.record(), row.Created, nil
}

func (repo *scoreRepository) ListScores(ctx context.Context, applicationIDs ...int) ([]application.ScoreRecord, error) {
	q := `
SELECT s.id, s.application_id, s.kind, s.score1, s.score2, s.score3, s.comment, s.created_at, s.updated_at,
	s.reviewer_id, u.name AS reviewer_name, u.email AS reviewer_email
FROM application_scores s JOIN "users" u ON u.id = s.reviewer_id
WHERE s.application_id = ANY($1)
ORDER BY s.reviewer_id, s.id`

	var rows []scoreRow
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(int64s(applicationIDs))); err != nil {
		return nil, errors.Wrap(err, "selecting scores")
	}
	records := make([]application.ScoreRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

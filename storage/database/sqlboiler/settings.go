package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
)

const (
	settingsTable = "result_notification_settings"
	settingsID    = 1 // singleton row
)

type settingsRow struct {
	InterviewLocation string    `boil:"interview_location"`
	InterviewDate     string    `boil:"interview_date"`
	InterviewDeadline string    `boil:"interview_deadline"`
	OTDatetime        string    `boil:"ot_datetime"`
	DocResultOpen     bool      `boil:"doc_result_open"`
	FinalResultOpen   bool      `boil:"final_result_open"`
	UpdatedBy         null.Int  `boil:"updated_by"`
	UpdatedAt         time.Time `boil:"updated_at"`
}

const settingsColumns = `interview_location, interview_date, interview_deadline, ot_datetime,
	doc_result_open, final_result_open, updated_by, updated_at`

func (row settingsRow) unboil() application.NotificationSettings {
	return application.NotificationSettings{
		InterviewLocation: row.InterviewLocation,
		InterviewDate:     row.InterviewDate,
		InterviewDeadline: row.InterviewDeadline,
		OTDatetime:        row.OTDatetime,
		DocResultOpen:     row.DocResultOpen,
		FinalResultOpen:   row.FinalResultOpen,
		UpdatedBy:         row.UpdatedBy,
		UpdatedAt:         row.UpdatedAt,
	}
}

type settingsRepository struct {
	exec core.DBExecutor
}

var _ application.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(exec core.DBExecutor) application.SettingsRepository {
	return &settingsRepository{exec: exec}
}

func (repo *settingsRepository) GetSettings(ctx context.Context) (application.NotificationSettings, error) {
	var row settingsRow
	err := newQuery(
		qm.Select(settingsColumns),
		qm.From(settingsTable),
		qm.Where("id = ?", settingsID),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return application.NotificationSettings{}, application.ErrSettingsNotFound
		}
		return application.NotificationSettings{}, errors.Wrap(err, "selecting notification settings")
	}
	return row.unboil(), nil
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, s application.NotificationSettings) (application.NotificationSettings, error) {
	q := `INSERT INTO ` + settingsTable + ` (id, ` + settingsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			interview_location = EXCLUDED.interview_location, interview_date = EXCLUDED.interview_date,
			interview_deadline = EXCLUDED.interview_deadline, ot_datetime = EXCLUDED.ot_datetime,
			doc_result_open = EXCLUDED.doc_result_open, final_result_open = EXCLUDED.final_result_open,
			updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
		RETURNING ` + settingsColumns

	var row settingsRow
	err := queries.Raw(q, settingsID,
		s.InterviewLocation, s.InterviewDate, s.InterviewDeadline, s.OTDatetime,
		s.DocResultOpen, s.FinalResultOpen, s.UpdatedBy, s.UpdatedAt.UTC(),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return application.NotificationSettings{}, errors.Wrap(err, "saving notification settings")
	}
	return row.unboil(), nil
}

package application

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
)

// NotificationSettings is the singleton schedule text shown on applicants' result page.
type NotificationSettings struct {
	InterviewLocation string    `json:"interview_location" db:"interview_location"`
	InterviewDate     string    `json:"interview_date" db:"interview_date"`
	InterviewDeadline string    `json:"interview_deadline" db:"interview_deadline"`
	OTDatetime        string    `json:"ot_datetime" db:"ot_datetime"`
	DocResultOpen     bool      `json:"doc_result_open" db:"doc_result_open"`
	FinalResultOpen   bool      `json:"final_result_open" db:"final_result_open"`
	UpdatedBy         null.Int  `json:"updated_by" db:"updated_by"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		InterviewLocation: "향설생활관 1관 RC218",
		InterviewDate:     "2026년 03월 05일",
		InterviewDeadline: "18:00 까지",
		OTDatetime:        "2026년 03월 09일 18:00",
		DocResultOpen:     true,
		FinalResultOpen:   true,
	}
}

// SettingsUpdate is a partial update of NotificationSettings.
type SettingsUpdate struct {
	InterviewLocation *string `json:"interview_location" validate:"omitempty,max=100"`
	InterviewDate     *string `json:"interview_date" validate:"omitempty,max=100"`
	InterviewDeadline *string `json:"interview_deadline" validate:"omitempty,max=100"`
	OTDatetime        *string `json:"ot_datetime" validate:"omitempty,max=100"`
	DocResultOpen     *bool   `json:"doc_result_open"`
	FinalResultOpen   *bool   `json:"final_result_open"`
}

// Apply copies the set fields onto s.
func (up SettingsUpdate) Apply(s NotificationSettings) NotificationSettings {
	for dst, src := range map[*string]*string{
		&s.InterviewLocation: up.InterviewLocation,
		&s.InterviewDate:     up.InterviewDate,
		&s.InterviewDeadline: up.InterviewDeadline,
		&s.OTDatetime:        up.OTDatetime,
	} {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	if up.DocResultOpen != nil {
		s.DocResultOpen = *up.DocResultOpen
	}
	if up.FinalResultOpen != nil {
		s.FinalResultOpen = *up.FinalResultOpen
	}
	return s
}

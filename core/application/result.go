package application

import "github.com/likelion-sch/recruit/core"

// Result is the applicant facing view of their decisions and interview schedule.
type Result struct {
	Name              string   `json:"name"`
	StudentID         string   `json:"student_id"`
	Department        string   `json:"department"`
	Track             Track    `json:"track"`
	DocDecision       Decision `json:"doc_decision"`
	FinalDecision     Decision `json:"final_decision"`
	InterviewLocation string   `json:"interview_location"`
	InterviewDate     string   `json:"interview_date"`
	InterviewDeadline string   `json:"interview_deadline"`
	OTDatetime        string   `json:"ot_datetime"`
}

// BuildResult reads the decision gate and the notification settings.
// A personal interview schedule overrides the global one and a stage whose
// results are not open yet reads PENDING.
func BuildResult(app Application, profile Profile, s NotificationSettings) Result {
	res := Result{
		Name:              core.OrDash(profile.Name),
		StudentID:         core.OrDash(profile.StudentID),
		Department:        core.OrDash(profile.Department),
		Track:             app.Track,
		DocDecision:       app.DocDecision,
		FinalDecision:     app.FinalDecision,
		InterviewLocation: s.InterviewLocation,
		InterviewDate:     s.InterviewDate,
		InterviewDeadline: s.InterviewDeadline,
		OTDatetime:        s.OTDatetime,
	}
	if app.PersonalInterviewLocation != "" {
		res.InterviewLocation = app.PersonalInterviewLocation
	}
	if app.PersonalInterviewDatetime != "" {
		res.InterviewDate = app.PersonalInterviewDatetime
	}
	if !s.DocResultOpen {
		res.DocDecision = DecisionPending
	}
	if !s.FinalResultOpen {
		res.FinalDecision = DecisionPending
	}
	return res
}

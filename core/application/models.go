package application

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
)

type Track string

const (
	TrackPlanningDesign Track = "PLANNING_DESIGN"
	TrackFrontend       Track = "FRONTEND"
	TrackBackend        Track = "BACKEND"
	TrackAIServer       Track = "AI_SERVER"
)

var Tracks = []Track{TrackPlanningDesign, TrackFrontend, TrackBackend, TrackAIServer}

func (t Track) IsValid() bool {
	for _, tr := range Tracks {
		if t == tr {
			return true
		}
	}
	return false
}

// Upper trims and upper-cases t.
func (t Track) Upper() Track {
	return Track(strings.ToUpper(core.CleanString(string(t))))
}

// ReviewerSlots is the number of reviewers scoring each applicant of the track.
func (t Track) ReviewerSlots() int {
	switch t {
	case TrackFrontend, TrackBackend:
		return 3
	default:
		return 4
	}
}

// Status is the legacy single-stage submission status.
// It is independent from the doc/final decision gates.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
)

var Statuses = []Status{StatusDraft, StatusSubmitted, StatusAccepted, StatusRejected}

type Kind string

const (
	KindDoc       Kind = "DOC"
	KindInterview Kind = "INTERVIEW"
)

// Essays are the free text answers of the application form.
type Essays struct {
	Motivation                   string `json:"motivation" db:"motivation"`
	CommonGrowthExperience       string `json:"common_growth_experience" db:"common_growth_experience"`
	CommonTimeManagement         string `json:"common_time_management" db:"common_time_management"`
	CommonTeamwork               string `json:"common_teamwork" db:"common_teamwork"`
	PlanningExperience           string `json:"planning_experience" db:"planning_experience"`
	PlanningIdea                 string `json:"planning_idea" db:"planning_idea"`
	AIProgrammingLevel           string `json:"ai_programming_level" db:"ai_programming_level"`
	AIServiceImpression          string `json:"ai_service_impression" db:"ai_service_impression"`
	BackendWebProcess            string `json:"backend_web_process" db:"backend_web_process"`
	BackendCodeQuality           string `json:"backend_code_quality" db:"backend_code_quality"`
	FrontendUIExperience         string `json:"frontend_ui_experience" db:"frontend_ui_experience"`
	FrontendDesignImplementation string `json:"frontend_design_implementation" db:"frontend_design_implementation"`
	Experience                   string `json:"experience" db:"experience"`
}

// FormFields are the JSON names of the Form fields, which are also their column names.
var FormFields = []string{
	"track", "one_liner", "portfolio_url", "motivation", "common_growth_experience", "common_time_management",
	"common_teamwork", "planning_experience", "planning_idea", "ai_programming_level", "ai_service_impression",
	"backend_web_process", "backend_code_quality", "frontend_ui_experience", "frontend_design_implementation",
	"experience",
}

func (e *Essays) ptr(name string) *string {
	switch name {
	case "motivation":
		return &e.Motivation
	case "common_growth_experience":
		return &e.CommonGrowthExperience
	case "common_time_management":
		return &e.CommonTimeManagement
	case "common_teamwork":
		return &e.CommonTeamwork
	case "planning_experience":
		return &e.PlanningExperience
	case "planning_idea":
		return &e.PlanningIdea
	case "ai_programming_level":
		return &e.AIProgrammingLevel
	case "ai_service_impression":
		return &e.AIServiceImpression
	case "backend_web_process":
		return &e.BackendWebProcess
	case "backend_code_quality":
		return &e.BackendCodeQuality
	case "frontend_ui_experience":
		return &e.FrontendUIExperience
	case "frontend_design_implementation":
		return &e.FrontendDesignImplementation
	case "experience":
		return &e.Experience
	}
	return nil
}

// Field returns the answer stored under its JSON field name.
func (e Essays) Field(name string) (string, bool) {
	if p := e.ptr(name); p != nil {
		return *p, true
	}
	return "", false
}

// Form is the applicant editable part of an Application.
type Form struct {
	Track        Track  `json:"track" db:"track" validate:"omitempty,track"`
	OneLiner     string `json:"one_liner" db:"one_liner" validate:"max=100"`
	PortfolioURL string `json:"portfolio_url" db:"portfolio_url" validate:"omitempty,url"`
	Essays
}

// ptr returns the text field named name. Track is not a text field.
func (f *Form) ptr(name string) *string {
	switch name {
	case "one_liner":
		return &f.OneLiner
	case "portfolio_url":
		return &f.PortfolioURL
	}
	return f.Essays.ptr(name)
}

func (f *Form) clean() {
	for _, name := range FormFields {
		if p := f.ptr(name); p != nil {
			*p = core.CleanString(*p)
		}
	}
}

// Clean trims every field. A missing track defaults to PLANNING_DESIGN.
func (f *Form) Clean() {
	f.clean()
	if f.Track == "" {
		f.Track = TrackPlanningDesign
	}
}

// Draft is a partial Form. Fields lists the JSON names present in the request body;
// only those are written.
type Draft struct {
	Form
	Fields []string `json:"-"`
}

// FullDraft returns a Draft that writes every field of f.
func FullDraft(f Form) Draft {
	return Draft{Form: f, Fields: FormFields}
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &d.Form); err != nil {
		return err
	}
	d.Fields = nil
	for _, name := range FormFields {
		if _, ok := keys[name]; ok {
			d.Fields = append(d.Fields, name)
		}
	}
	return nil
}

// Clean trims the fields. A blank track is dropped from the draft instead of defaulted.
func (d *Draft) Clean() {
	d.Form.clean()
	if d.Track != "" {
		return
	}
	fields := make([]string, 0, len(d.Fields))
	for _, name := range d.Fields {
		if name != "track" {
			fields = append(fields, name)
		}
	}
	d.Fields = fields
}

// Apply copies the fields set by d into f.
func (d Draft) Apply(f *Form) {
	for _, name := range d.Fields {
		if name == "track" {
			f.Track = d.Track
			continue
		}
		if dst, src := f.ptr(name), d.Form.ptr(name); dst != nil && src != nil {
			*dst = *src
		}
	}
}

type Application struct {
	ID     int    `json:"id" db:"id"`
	UserID int    `json:"-" db:"user_id"`
	Status Status `json:"status" db:"status"`
	Form
	Gate

	PersonalInterviewDatetime string    `json:"personal_interview_datetime" db:"personal_interview_datetime"`
	PersonalInterviewLocation string    `json:"personal_interview_location" db:"personal_interview_location"`
	SubmittedAt               null.Time `json:"submitted_at" db:"submitted_at"`
	CreatedAt                 time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at" db:"updated_at"`
}

// IsLocked reports whether the applicant may no longer edit the form.
func (a Application) IsLocked() bool {
	return a.Status != StatusDraft
}

// Profile is the applicant's account information shown to reviewers.
type Profile struct {
	ID             int    `json:"id" db:"user_id"`
	Email          string `json:"email" db:"email"`
	Name           string `json:"name" db:"name"`
	StudentID      string `json:"student_id" db:"student_id"`
	Department     string `json:"department" db:"department"`
	Phone          string `json:"phone" db:"phone"`
	Role           string `json:"role" db:"role"`
	EmailVerified  bool   `json:"email_verified" db:"email_verified"`
	EducationTrack string `json:"education_track" db:"education_track"`
}

// Applicant is an application as listed in the admin console.
type Applicant struct {
	Application
	Averages

	DocScores       []ScoreRecord  `json:"doc_scores"`
	InterviewScores []ScoreRecord  `json:"interview_scores"`
	DocSlots        []ReviewerSlot `json:"doc_slots"`
	InterviewSlots  []ReviewerSlot `json:"interview_slots"`
	User            Profile        `json:"user"`
}

// WithScores attaches records and recomputes the averages and reviewer slots from them.
func (a *Applicant) WithScores(records []ScoreRecord) {
	a.DocScores = FilterKind(records, KindDoc)
	a.InterviewScores = FilterKind(records, KindInterview)
	a.Averages = Aggregate(records)
	a.DocSlots = AssignSlots(a.Track, a.DocScores)
	a.InterviewSlots = AssignSlots(a.Track, a.InterviewScores)
}

// MyApplication is what an applicant sees of their own application.
type MyApplication struct {
	Status      Status `json:"status"`
	Application *Form  `json:"application"`
	Draft       *Form  `json:"draft"`
}

func (a Application) Mine() MyApplication {
	form := a.Form
	if a.IsLocked() {
		return MyApplication{Status: a.Status, Application: &form}
	}
	return MyApplication{Status: a.Status, Draft: &form}
}

// InterviewSchedule is a per applicant override of the global interview time and place.
type InterviewSchedule struct {
	Datetime string `json:"personal_interview_datetime" validate:"max=100"`
	Location string `json:"personal_interview_location" validate:"max=100"`
}

func (s *InterviewSchedule) Clean() {
	s.Datetime = core.CleanString(s.Datetime)
	s.Location = core.CleanString(s.Location)
}

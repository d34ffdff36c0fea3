package session

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
)

// Quizzes and Q&A run for the web tracks, assignments and announcements for the others.
var (
	WebTracks   = []application.Track{application.TrackFrontend, application.TrackBackend}
	OtherTracks = []application.Track{application.TrackAIServer, application.TrackPlanningDesign}
)

// CleanTrack normalises a ?track filter. An empty result does not filter.
func CleanTrack(track string) application.Track {
	return application.Track(track).Upper()
}

// Quiz

type Quiz struct {
	ID            int               `json:"id" db:"id"`
	Track         application.Track `json:"track" db:"track"`
	Title         string            `json:"title" db:"title"`
	Question      string            `json:"question" db:"question"`
	Option1       string            `json:"option_1" db:"option_1"`
	Option2       string            `json:"option_2" db:"option_2"`
	Option3       string            `json:"option_3" db:"option_3"`
	Option4       string            `json:"option_4" db:"option_4"`
	Option5       string            `json:"option_5" db:"option_5"`
	CorrectOption int               `json:"-" db:"correct_option"`
	CreatedBy     null.Int          `json:"-" db:"created_by"`
	CreatedByName null.String       `json:"created_by_name" db:"created_by_name"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"-" db:"updated_at"`
}

type QuizAnswer struct {
	ID             int       `json:"id" db:"id"`
	QuizID         int       `json:"quiz_id" db:"quiz_id"`
	StudentID      int       `json:"student_id" db:"student_id"`
	SelectedOption int       `json:"selected_option" db:"selected_option"`
	IsCorrect      bool      `json:"is_correct" db:"is_correct"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type MyAnswer struct {
	SelectedOption int  `json:"selected_option"`
	IsCorrect      bool `json:"is_correct"`
}

// QuizView is a quiz as seen by one user. CorrectOption is only set for instructors and staff.
type QuizView struct {
	Quiz
	CorrectOption *int      `json:"correct_option,omitempty"`
	MyAnswer      *MyAnswer `json:"my_answer"`
}

type NewQuiz struct {
	Track         application.Track `json:"track" validate:"required,fbtrack"`
	Title         string            `json:"title" validate:"required,notblank,max=200"`
	Question      string            `json:"question" validate:"required,notblank"`
	Option1       string            `json:"option_1" validate:"required,notblank,max=300"`
	Option2       string            `json:"option_2" validate:"required,notblank,max=300"`
	Option3       string            `json:"option_3" validate:"required,notblank,max=300"`
	Option4       string            `json:"option_4" validate:"required,notblank,max=300"`
	Option5       string            `json:"option_5" validate:"required,notblank,max=300"`
	CorrectOption int               `json:"correct_option" validate:"required,min=1,max=5"`
}

func (in *NewQuiz) Clean() {
	in.Track = in.Track.Upper()
	for _, s := range []*string{&in.Title, &in.Question, &in.Option1, &in.Option2, &in.Option3, &in.Option4, &in.Option5} {
		*s = core.CleanString(*s)
	}
}

type AnswerInput struct {
	SelectedOption int `json:"selected_option" validate:"required,min=1,max=5"`
}

type AnswerResult struct {
	SelectedOption int  `json:"selected_option"`
	CorrectOption  int  `json:"correct_option"`
	IsCorrect      bool `json:"is_correct"`
}

// Q&A

type Post struct {
	ID         int               `json:"id" db:"id"`
	Track      application.Track `json:"track" db:"track"`
	Title      string            `json:"title" db:"title"`
	Content    string            `json:"content" db:"content"`
	AuthorID   int               `json:"-" db:"author_id"`
	AuthorName string            `json:"author_name" db:"author_name"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// PostSummary is a Q&A post in a listing.
type PostSummary struct {
	ID           int               `json:"id" db:"id"`
	Track        application.Track `json:"track" db:"track"`
	Title        string            `json:"title" db:"title"`
	AuthorName   string            `json:"author_name" db:"author_name"`
	CommentCount int               `json:"comment_count" db:"comment_count"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

type Comment struct {
	ID         int       `json:"id" db:"id"`
	PostID     int       `json:"-" db:"post_id"`
	AuthorID   int       `json:"-" db:"author_id"`
	AuthorName string    `json:"author_name" db:"author_name"`
	AuthorRole string    `json:"author_role" db:"author_role"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

type NewPost struct {
	Track   application.Track `json:"track" validate:"required,fbtrack"`
	Title   string            `json:"title" validate:"required,notblank,max=200"`
	Content string            `json:"content" validate:"required,notblank"`
}

func (in *NewPost) Clean() {
	in.Track = in.Track.Upper()
	in.Title = core.CleanString(in.Title)
	in.Content = core.CleanString(in.Content)
}

type NewComment struct {
	Content string `json:"content" validate:"required,notblank"`
}

// Assignment

type Assignment struct {
	ID            int               `json:"id" db:"id"`
	Track         application.Track `json:"track" db:"track"`
	Title         string            `json:"title" db:"title"`
	Content       string            `json:"content" db:"content"`
	Deadline      time.Time         `json:"deadline" db:"deadline"`
	CreatedBy     null.Int          `json:"-" db:"created_by"`
	CreatedByName null.String       `json:"created_by_name" db:"created_by_name"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"-" db:"updated_at"`
}

// Submission is a student's link for an assignment plus its read receipt.
type Submission struct {
	ID           int         `json:"id" db:"id"`
	AssignmentID int         `json:"-" db:"assignment_id"`
	StudentID    int         `json:"-" db:"student_id"`
	StudentName  string      `json:"student_name" db:"student_name"`
	Link         string      `json:"link" db:"link"`
	SubmittedAt  time.Time   `json:"submitted_at" db:"submitted_at"`
	IsRead       bool        `json:"is_read" db:"is_read"`
	ReadAt       null.Time   `json:"read_at" db:"read_at"`
	ReadBy       null.Int    `json:"-" db:"read_by"`
	ReadByName   null.String `json:"read_by_name" db:"read_by_name"`
	UpdatedAt    time.Time   `json:"-" db:"updated_at"`
}

type AssignmentView struct {
	Assignment
	MySubmission *Submission `json:"my_submission"`
}

// AssignmentDetail lists every submission to instructors and staff, only the caller's own to others.
type AssignmentDetail struct {
	AssignmentView
	Submissions []Submission `json:"submissions"`
}

type NewAssignment struct {
	Track    application.Track `json:"track" validate:"required,aptrack"`
	Title    string            `json:"title" validate:"required,notblank,max=200"`
	Content  string            `json:"content" validate:"required,notblank"`
	Deadline time.Time         `json:"deadline" validate:"required"`
}

func (in *NewAssignment) Clean() {
	in.Track = in.Track.Upper()
	in.Title = core.CleanString(in.Title)
	in.Content = core.CleanString(in.Content)
	in.Deadline = in.Deadline.UTC()
}

type SubmissionInput struct {
	Link string `json:"link" validate:"required,url,max=500"`
}

// SubmissionFilter selects submissions. Zero fields do not filter.
type SubmissionFilter struct {
	AssignmentIDs []int
	StudentID     int
}

// Announcement

type Announcement struct {
	ID         int               `json:"id" db:"id"`
	Track      application.Track `json:"track" db:"track"`
	Title      string            `json:"title" db:"title"`
	Content    string            `json:"content" db:"content"`
	AuthorID   int               `json:"-" db:"author_id"`
	AuthorName string            `json:"author_name" db:"author_name"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

type NewAnnouncement struct {
	Track   application.Track `json:"track" validate:"required,aptrack"`
	Title   string            `json:"title" validate:"required,notblank,max=200"`
	Content string            `json:"content" validate:"required,notblank"`
}

func (in *NewAnnouncement) Clean() {
	in.Track = in.Track.Upper()
	in.Title = core.CleanString(in.Title)
	in.Content = core.CleanString(in.Content)
}

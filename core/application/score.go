package application

import (
	"sort"
	"time"

	"github.com/likelion-sch/recruit/core"
)

// rubric caps of the three sub-scores
const (
	Score1Max = 40
	Score2Max = 30
	Score3Max = 20
)

type Reviewer struct {
	ID    int    `json:"id" db:"reviewer_id"`
	Name  string `json:"name" db:"reviewer_name"`
	Email string `json:"email" db:"reviewer_email"`
}

// ScoreRecord is one reviewer's score of one applicant for one Kind.
// There is at most one record per (application, kind, reviewer).
type ScoreRecord struct {
	ID            int       `json:"id" db:"id"`
	ApplicationID int       `json:"-" db:"application_id"`
	Kind          Kind      `json:"kind" db:"kind"`
	Score1        int       `json:"score1" db:"score1"`
	Score2        int       `json:"score2" db:"score2"`
	Score3        int       `json:"score3" db:"score3"`
	Total         int       `json:"total" db:"-"`
	Comment       string    `json:"comment" db:"comment"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
	Reviewer      Reviewer  `json:"reviewer" db:"-"`
}

// ComputeTotal sets and returns the sum of the sub-scores.
func (s *ScoreRecord) ComputeTotal() int {
	s.Total = s.Score1 + s.Score2 + s.Score3
	return s.Total
}

// ScoreInput is a reviewer's score submission.
type ScoreInput struct {
	Kind    Kind   `json:"kind" validate:"required,kind"`
	Score1  int    `json:"score1" validate:"min=0,max=40"`
	Score2  int    `json:"score2" validate:"min=0,max=30"`
	Score3  int    `json:"score3" validate:"min=0,max=20"`
	Comment string `json:"comment"`
}

func (in *ScoreInput) Clean() {
	in.Kind = Kind(core.CleanString(string(in.Kind)))
	in.Comment = core.CleanString(in.Comment)
}

// ScoreSheet groups an applicant's records by kind, each ordered by reviewer id.
type ScoreSheet struct {
	Doc       []ScoreRecord `json:"doc"`
	Interview []ScoreRecord `json:"interview"`
}

func NewScoreSheet(records []ScoreRecord) ScoreSheet {
	return ScoreSheet{
		Doc:       FilterKind(records, KindDoc),
		Interview: FilterKind(records, KindInterview),
	}
}

// FilterKind returns the records of kind sorted by reviewer id, with totals computed.
// It never returns nil.
func FilterKind(records []ScoreRecord, kind Kind) []ScoreRecord {
	out := make([]ScoreRecord, 0, len(records))
	for _, r := range records {
		if r.Kind == kind {
			r.ComputeTotal()
			out = append(out, r)
		}
	}
	SortByReviewer(out)
	return out
}

func SortByReviewer(records []ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Reviewer.ID < records[j].Reviewer.ID })
}

package application

import (
	"fmt"

	"github.com/volatiletech/null/v8"
)

const (
	slotPlaceholder   = "채점자 "
	anonymousReviewer = "익명"
	noValue           = "-"
)

var slotLabels = []string{"A", "B", "C", "D"}

// Averages are the per-stage score means of an applicant.
// A stage without any record has no average (JSON null), which is distinct from a 0.0 average.
type Averages struct {
	DocAvg         null.Float64 `json:"doc_avg" db:"doc_avg"`
	InterviewAvg   null.Float64 `json:"interview_avg" db:"interview_avg"`
	TotalAvg       null.Float64 `json:"total_avg" db:"total_avg"`
	DocCount       int          `json:"doc_count" db:"doc_count"`
	InterviewCount int          `json:"interview_count" db:"interview_count"`
}

// Average is the arithmetic mean of the totals of records, or no value when records is empty.
func Average(records []ScoreRecord) null.Float64 {
	if len(records) == 0 {
		return null.Float64{}
	}
	var sum int
	for _, r := range records {
		sum += r.Score1 + r.Score2 + r.Score3
	}
	return null.Float64From(float64(sum) / float64(len(records)))
}

// TotalAverage is the mean of both stage averages. A missing stage yields no value.
func TotalAverage(doc, interview null.Float64) null.Float64 {
	if !doc.Valid || !interview.Valid {
		return null.Float64{}
	}
	return null.Float64From((doc.Float64 + interview.Float64) / 2)
}

// Aggregate computes the averages of an applicant's full record set.
func Aggregate(records []ScoreRecord) Averages {
	doc := FilterKind(records, KindDoc)
	interview := FilterKind(records, KindInterview)
	avg := Averages{
		DocAvg:         Average(doc),
		InterviewAvg:   Average(interview),
		DocCount:       len(doc),
		InterviewCount: len(interview),
	}
	avg.TotalAvg = TotalAverage(avg.DocAvg, avg.InterviewAvg)
	return avg
}

// FormatAverage renders an average with one decimal, "-" when there is no value.
func FormatAverage(v null.Float64) string {
	if !v.Valid {
		return noValue
	}
	return fmt.Sprintf("%.1f", v.Float64)
}

// ReviewerSlot is the anonymous positional label of one reviewer's record.
// It never carries the score.
type ReviewerSlot struct {
	Label      string   `json:"label"`
	Filled     bool     `json:"filled"`
	ReviewerID null.Int `json:"reviewer_id"`
	Display    string   `json:"display"`
}

// AssignSlots maps the records of one kind onto the track's labeled slots.
// Records are ordered by reviewer id, so the mapping does not depend on input order.
// Records beyond the track's slot count are not shown.
func AssignSlots(track Track, records []ScoreRecord) []ReviewerSlot {
	sorted := make([]ScoreRecord, len(records))
	copy(sorted, records)
	SortByReviewer(sorted)

	n := track.ReviewerSlots()
	slots := make([]ReviewerSlot, 0, n)
	for i := 0; i < n; i++ {
		slot := ReviewerSlot{Label: slotLabels[i], Display: slotPlaceholder + slotLabels[i]}
		if i < len(sorted) {
			rev := sorted[i].Reviewer
			slot.Filled = true
			slot.ReviewerID = null.IntFrom(rev.ID)
			slot.Display = rev.Name
			if slot.Display == "" {
				slot.Display = anonymousReviewer
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

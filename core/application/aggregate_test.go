package application

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func score(reviewer int, name string, kind Kind, s1, s2, s3 int) ScoreRecord {
	return ScoreRecord{Kind: kind, Score1: s1, Score2: s2, Score3: s3, Reviewer: Reviewer{ID: reviewer, Name: name}}
}

func TestAggregate(t *testing.T) {
	records := []ScoreRecord{
		score(7, "Kim", KindDoc, 30, 25, 20), // 75
		score(3, "Lee", KindDoc, 35, 28, 18), // 81
	}

	avg := Aggregate(records)
	assert.Equal(t, null.Float64From(78.0), avg.DocAvg)
	assert.False(t, avg.InterviewAvg.Valid, "no interview record must be no value, not 0.0")
	assert.False(t, avg.TotalAvg.Valid)
	assert.Equal(t, 2, avg.DocCount)
	assert.Equal(t, 0, avg.InterviewCount)
	assert.Equal(t, "78.0", FormatAverage(avg.DocAvg))
	assert.Equal(t, "-", FormatAverage(avg.InterviewAvg))

	records = append(records, score(3, "Lee", KindInterview, 40, 30, 20)) // 90
	avg = Aggregate(records)
	assert.Equal(t, null.Float64From(90.0), avg.InterviewAvg)
	assert.Equal(t, null.Float64From(84.0), avg.TotalAvg)
}

func TestAverage_ZeroIsAValue(t *testing.T) {
	avg := Average([]ScoreRecord{score(1, "", KindDoc, 0, 0, 0)})
	assert.True(t, avg.Valid)
	assert.Equal(t, 0.0, avg.Float64)
	assert.Equal(t, "0.0", FormatAverage(avg))

	assert.False(t, Average(nil).Valid)
}

func TestAverage_OrderIndependent(t *testing.T) {
	records := make([]ScoreRecord, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, score(i+1, "", KindDoc, i*3%41, i*7%31, i*5%21))
	}
	want := Average(records)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]ScoreRecord{}, records...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.InDelta(t, want.Float64, Average(shuffled).Float64, 1e-9)
	}
}

func TestTotalAverage(t *testing.T) {
	assert.Equal(t, null.Float64From(75.0), TotalAverage(null.Float64From(70), null.Float64From(80)))
	assert.False(t, TotalAverage(null.Float64From(70), null.Float64{}).Valid)
	assert.False(t, TotalAverage(null.Float64{}, null.Float64From(80)).Valid)
	assert.False(t, TotalAverage(null.Float64{}, null.Float64{}).Valid)
}

func TestAssignSlots(t *testing.T) {
	records := []ScoreRecord{
		score(9, "Park", KindDoc, 10, 10, 10),
		score(2, "", KindDoc, 20, 20, 10),
		score(5, "Choi", KindDoc, 30, 10, 5),
	}

	t.Run("three reviewer track", func(t *testing.T) {
		slots := AssignSlots(TrackBackend, records)
		assert.Len(t, slots, 3)
		assert.Equal(t, []string{"익명", "Choi", "Park"}, displays(slots))
		assert.Equal(t, []string{"A", "B", "C"}, labels(slots))
		assert.Equal(t, null.IntFrom(2), slots[0].ReviewerID)
	})

	t.Run("four reviewer track has a placeholder", func(t *testing.T) {
		slots := AssignSlots(TrackAIServer, records)
		assert.Len(t, slots, 4)
		assert.Equal(t, []string{"A", "B", "C", "D"}, labels(slots))
		assert.False(t, slots[3].Filled)
		assert.Equal(t, "채점자 D", slots[3].Display)
		assert.False(t, slots[3].ReviewerID.Valid)
	})

	t.Run("extra reviewers are not shown", func(t *testing.T) {
		more := append(append([]ScoreRecord{}, records...), score(1, "First", KindDoc, 1, 1, 1))
		slots := AssignSlots(TrackFrontend, more)
		assert.Equal(t, []string{"First", "익명", "Choi"}, displays(slots))
	})

	t.Run("stable regardless of input order", func(t *testing.T) {
		want := AssignSlots(TrackPlanningDesign, records)
		reversed := []ScoreRecord{records[2], records[1], records[0]}
		assert.Equal(t, want, AssignSlots(TrackPlanningDesign, reversed))
		assert.Equal(t, want, AssignSlots(TrackPlanningDesign, records))
	})

	t.Run("no records", func(t *testing.T) {
		slots := AssignSlots(TrackFrontend, nil)
		assert.Equal(t, []string{"채점자 A", "채점자 B", "채점자 C"}, displays(slots))
	})
}

func TestFilterKind(t *testing.T) {
	records := []ScoreRecord{
		score(4, "", KindInterview, 1, 2, 3),
		score(3, "", KindDoc, 10, 10, 10),
		score(1, "", KindDoc, 5, 5, 5),
	}
	doc := FilterKind(records, KindDoc)
	assert.Len(t, doc, 2)
	assert.Equal(t, 1, doc[0].Reviewer.ID)
	assert.Equal(t, 15, doc[0].Total)
	assert.Equal(t, 30, doc[1].Total)

	assert.NotNil(t, FilterKind(nil, KindDoc))
}

func displays(slots []ReviewerSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Display)
	}
	return out
}

func labels(slots []ReviewerSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Label)
	}
	return out
}

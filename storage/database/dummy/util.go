package dummydb

import (
	"sort"

	"github.com/likelion-sch/recruit/core/application"
)

// sortScores orders records by reviewer id then id, like the SQL repositories.
func sortScores(records []application.ScoreRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Reviewer.ID != records[j].Reviewer.ID {
			return records[i].Reviewer.ID < records[j].Reviewer.ID
		}
		return records[i].ID < records[j].ID
	})
}

package application

import (
	"sort"
	"strings"

	"github.com/likelion-sch/recruit/core"
)

type Sort string

const (
	SortDefault   Sort = ""           // most recently updated first
	SortTotalAsc  Sort = "TOTAL_ASC"  // by total_avg, no value first
	SortTotalDesc Sort = "TOTAL_DESC" // by total_avg, no value last
)

const filterAll = "ALL"

// QueryFilter selects a page of applicants. Empty fields do not filter.
type QueryFilter struct {
	Query    string `query:"q"`
	Track    Track  `query:"track"`
	Status   Status `query:"status"`
	Sort     Sort   `query:"sort"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

// Clean normalises the filter: "all" selectors and unknown sort modes are dropped.
func (qf *QueryFilter) Clean() {
	qf.Query = core.CleanString(qf.Query)
	if t := strings.ToUpper(core.CleanString(string(qf.Track))); t == filterAll {
		qf.Track = ""
	} else {
		qf.Track = Track(t)
	}
	if s := strings.ToUpper(core.CleanString(string(qf.Status))); s == filterAll {
		qf.Status = ""
	} else {
		qf.Status = Status(s)
	}
	switch s := Sort(strings.ToUpper(core.CleanString(string(qf.Sort)))); s {
	case SortTotalAsc, SortTotalDesc:
		qf.Sort = s
	default:
		qf.Sort = SortDefault
	}
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.PageSize <= 0 {
		qf.PageSize = core.DefaultPageSize
	} else if qf.PageSize > core.MaxPageSize {
		qf.PageSize = core.MaxPageSize
	}
}

// Matches reports whether a passes the track, status and text filters.
// The text query is a case-insensitive substring match on email, name and student id.
func (qf QueryFilter) Matches(a Applicant) bool {
	if qf.Track != "" && a.Track != qf.Track {
		return false
	}
	if qf.Status != "" && a.Status != qf.Status {
		return false
	}
	if qf.Query != "" {
		q := strings.ToLower(qf.Query)
		if !strings.Contains(strings.ToLower(a.User.Email), q) &&
			!strings.Contains(strings.ToLower(a.User.Name), q) &&
			!strings.Contains(strings.ToLower(a.User.StudentID), q) {
			return false
		}
	}
	return true
}

// Orderings is the database ordering equivalent to SortApplicants.
func (s Sort) Orderings() []core.DBOrdering {
	recent := []core.DBOrdering{{Field: "updated_at"}, {Field: "id"}}
	switch s {
	case SortTotalAsc:
		return append([]core.DBOrdering{{Field: "total_avg", Ascending: true, NullsFirst: true}}, recent...)
	case SortTotalDesc:
		return append([]core.DBOrdering{{Field: "total_avg"}}, recent...)
	}
	return recent
}

// SortApplicants orders apps in place. No value sorts lowest, ties go to the most recently updated.
func SortApplicants(apps []Applicant, s Sort) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := apps[i], apps[j]
		if s == SortTotalAsc || s == SortTotalDesc {
			at, bt := a.TotalAvg, b.TotalAvg
			if at.Valid != bt.Valid {
				// no value is the lowest total
				if s == SortTotalAsc {
					return !at.Valid
				}
				return at.Valid
			}
			if at.Valid && at.Float64 != bt.Float64 {
				if s == SortTotalAsc {
					return at.Float64 < bt.Float64
				}
				return at.Float64 > bt.Float64
			}
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
}

// ApplicantPage is one page of a filtered applicant list.
type ApplicantPage struct {
	Count      int         `json:"count"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Results    []Applicant `json:"results"`
	HasNext    bool        `json:"-"`
	HasPrev    bool        `json:"-"`
}

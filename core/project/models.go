package project

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
)

// Project is a showcase entry of a past generation's team.
type Project struct {
	ID           int       `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Generation   int       `json:"generation" db:"generation"`
	Description  string    `json:"description" db:"description"`
	Detail       string    `json:"detail" db:"detail"`
	TechStack    string    `json:"tech_stack" db:"tech_stack"`
	GithubURL    string    `json:"github_url" db:"github_url"`
	TeamMembers  string    `json:"team_members" db:"team_members"`
	ThumbnailURL string    `json:"thumbnail_url" db:"thumbnail_url"`
	PdfURL       string    `json:"pdf_url" db:"pdf_url"`
	Order        int       `json:"order" db:"order"`
	IsVisible    bool      `json:"is_visible" db:"is_visible"`
	CreatedBy    null.Int  `json:"-" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Fields is the create body. Nil fields of a patch are left unchanged.
type Fields struct {
	Title        *string `json:"title" validate:"omitempty,notblank,max=200"`
	Generation   *int    `json:"generation" validate:"omitempty,min=0,max=32767"`
	Description  *string `json:"description"`
	Detail       *string `json:"detail"`
	TechStack    *string `json:"tech_stack" validate:"omitempty,max=500"`
	GithubURL    *string `json:"github_url" validate:"omitempty,url"`
	TeamMembers  *string `json:"team_members" validate:"omitempty,max=500"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url"`
	PdfURL       *string `json:"pdf_url" validate:"omitempty,url"`
	Order        *int    `json:"order" validate:"omitempty,min=0"`
	IsVisible    *bool   `json:"is_visible"`
}

func (f *Fields) Clean() {
	for _, s := range []*string{
		f.Title, f.Description, f.Detail, f.TechStack, f.GithubURL, f.TeamMembers, f.ThumbnailURL, f.PdfURL,
	} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
}

// Apply copies the set fields onto p.
func (f Fields) Apply(p Project) Project {
	for dst, src := range map[*string]*string{
		&p.Title:        f.Title,
		&p.Description:  f.Description,
		&p.Detail:       f.Detail,
		&p.TechStack:    f.TechStack,
		&p.GithubURL:    f.GithubURL,
		&p.TeamMembers:  f.TeamMembers,
		&p.ThumbnailURL: f.ThumbnailURL,
		&p.PdfURL:       f.PdfURL,
	} {
		if src != nil {
			*dst = *src
		}
	}
	if f.Generation != nil {
		p.Generation = *f.Generation
	}
	if f.Order != nil {
		p.Order = *f.Order
	}
	if f.IsVisible != nil {
		p.IsVisible = *f.IsVisible
	}
	return p
}

type ListFilter struct {
	IncludeHidden bool
}

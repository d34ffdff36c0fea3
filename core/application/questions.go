package application

import (
	"fmt"
	"io/fs"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/likelion-sch/recruit/core"
)

const questionsFile = "questions.yaml"

type (
	Question struct {
		Field     string `yaml:"field" json:"field"`
		Label     string `yaml:"label" json:"label"`
		MaxLength int    `yaml:"max_length" json:"max_length"`
	}

	// Catalogue lists the essay questions every applicant answers plus the ones of each track.
	Catalogue struct {
		Common []Question           `yaml:"common" json:"common"`
		Tracks map[Track][]Question `yaml:"tracks" json:"tracks"`
	}
)

// LoadCatalogue reads the question catalogue from fsys.
func LoadCatalogue(fsys fs.FS) (*Catalogue, error) {
	data, err := fs.ReadFile(fsys, questionsFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading question catalogue")
	}
	var cat Catalogue
	if err = yaml.Unmarshal(data, &cat); err != nil {
		return nil, errors.Wrap(err, "parsing question catalogue")
	}
	if err = cat.check(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalogue) check() error {
	var essays Essays
	all := append([]Question{}, c.Common...)
	for track, qs := range c.Tracks {
		if !track.IsValid() {
			return fmt.Errorf("question catalogue: unknown track %q", track)
		}
		all = append(all, qs...)
	}
	for _, q := range all {
		if _, ok := essays.Field(q.Field); !ok {
			return fmt.Errorf("question catalogue: unknown field %q", q.Field)
		}
	}
	return nil
}

// Required returns the questions an applicant of track must answer.
func (c *Catalogue) Required(track Track) []Question {
	qs := make([]Question, 0, len(c.Common)+2)
	qs = append(qs, c.Common...)
	return append(qs, c.Tracks[track]...)
}

// CheckSubmission reports every required question left blank or too long, plus a missing profile.
func (c *Catalogue) CheckSubmission(form Form, profile Profile) error {
	var flds []core.FieldError
	for name, val := range map[string]string{
		"name":       profile.Name,
		"student_id": profile.StudentID,
		"department": profile.Department,
	} {
		if core.CleanString(val) == "" {
			flds = append(flds, core.FieldError{Field: name, Error: "this field is required"})
		}
	}
	for _, q := range c.Required(form.Track) {
		val, _ := form.Essays.Field(q.Field)
		switch {
		case core.CleanString(val) == "":
			flds = append(flds, core.FieldError{Field: q.Field, Error: "this field is required"})
		case q.MaxLength > 0 && utf8.RuneCountInString(val) > q.MaxLength:
			flds = append(flds, core.FieldError{
				Field: q.Field,
				Error: fmt.Sprintf("must be at most %d characters", q.MaxLength),
			})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("application is incomplete"), flds...)
	}
	return nil
}

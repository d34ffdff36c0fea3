package session

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
)

func trackNames(tracks []application.Track) []string {
	names := make([]string, 0, len(tracks))
	for _, t := range tracks {
		names = append(names, string(t))
	}
	return names
}

// InitValidators registers the session validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, "fbtrack", "track must be FRONTEND or BACKEND",
		trackNames(WebTracks)...)
	core.RegisterEnumValidation(validate, translator, "aptrack", "track must be AI_SERVER or PLANNING_DESIGN",
		trackNames(OtherTracks)...)
}

func (in *NewQuiz) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

func (in *NewPost) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

func (in *NewAssignment) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

func (in *NewAnnouncement) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

package application

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/likelion-sch/recruit/core"
)

// InitValidators registers the application validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	tracks := make([]string, 0, len(Tracks))
	for _, t := range Tracks {
		tracks = append(tracks, string(t))
	}
	core.RegisterEnumValidation(validate, translator, "track", "invalid track", tracks...)
	core.RegisterEnumValidation(validate, translator, "kind", "kind must be DOC or INTERVIEW",
		string(KindDoc), string(KindInterview))
	core.RegisterEnumValidation(validate, translator, "decision", "decision must be ACCEPTED or REJECTED",
		string(DecisionAccepted), string(DecisionRejected))
	core.RegisterEnumValidation(validate, translator, "appstatus", "status must be one of [ACCEPTED, REJECTED]",
		string(StatusAccepted), string(StatusRejected))
}

// DecisionInput is the body of the finalize endpoints.
type DecisionInput struct {
	Decision Decision `json:"decision" validate:"required,decision"`
}

// StatusInput is the body of the legacy status override.
type StatusInput struct {
	Status Status `json:"status" validate:"required,appstatus"`
}

// Validate cleans and validates in.
func (in *ScoreInput) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

// Validate cleans and validates the fields d sets.
func (d *Draft) Validate(validate *validator.Validate) error {
	d.Clean()
	return validate.Struct(d.Form)
}

// Validate cleans and validates f.
func (f *Form) Validate(validate *validator.Validate) error {
	f.Clean()
	return validate.Struct(f)
}

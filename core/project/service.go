package project

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("project not found")
)

type (
	Repository interface {
		// ListProjects orders by (order, -created_at).
		ListProjects(ctx context.Context, filter ListFilter) ([]Project, error)
		GetProject(ctx context.Context, id int) (Project, error)
		CreateProject(ctx context.Context, p Project) (Project, error)
		UpdateProject(ctx context.Context, p Project) (Project, error)
		DeleteProject(ctx context.Context, id int) error
	}

	Service interface {
		List(ctx context.Context, filter ListFilter) ([]Project, error)
		Get(ctx context.Context, id int) (Project, error)
		Create(ctx context.Context, by user.User, f Fields) (Project, error)
		Update(ctx context.Context, id int, f Fields) (Project, error)
		Delete(ctx context.Context, id int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Validate cleans and validates f. Creation additionally requires a title and a generation.
func (f *Fields) Validate(validate *validator.Validate, creating bool) error {
	f.Clean()
	if creating {
		var flds []core.FieldError
		if f.Title == nil || *f.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: "this field is required"})
		}
		if f.Generation == nil {
			flds = append(flds, core.FieldError{Field: "generation", Error: "this field is required"})
		}
		if len(flds) > 0 {
			return core.NewValidationError(errors.New("invalid project"), flds...)
		}
	}
	return validate.Struct(f)
}

func (svc *service) List(ctx context.Context, filter ListFilter) ([]Project, error) {
	projects, err := svc.repo.ListProjects(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing projects")
	}
	return projects, nil
}

func (svc *service) Get(ctx context.Context, id int) (Project, error) {
	p, err := svc.repo.GetProject(ctx, id)
	if err != nil {
		return Project{}, errors.Wrap(err, "getting project")
	}
	return p, nil
}

func (svc *service) Create(ctx context.Context, by user.User, f Fields) (Project, error) {
	now := NowFunc().UTC()
	p := f.Apply(Project{IsVisible: true})
	p.CreatedBy = null.IntFrom(by.ID)
	p.CreatedAt = now
	p.UpdatedAt = now
	p, err := svc.repo.CreateProject(ctx, p)
	if err != nil {
		return Project{}, errors.Wrap(err, "creating project")
	}
	return p, nil
}

func (svc *service) Update(ctx context.Context, id int, f Fields) (Project, error) {
	p, err := svc.repo.GetProject(ctx, id)
	if err != nil {
		return Project{}, errors.Wrap(err, "getting project")
	}
	p = f.Apply(p)
	p.UpdatedAt = NowFunc().UTC()
	if p, err = svc.repo.UpdateProject(ctx, p); err != nil {
		return Project{}, errors.Wrap(err, "updating project")
	}
	return p, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if err := svc.repo.DeleteProject(ctx, id); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return nil
}

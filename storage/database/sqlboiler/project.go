package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/project"
)

const projectsTable = "projects"

var projectWritable = []string{
	"title", "generation", "description", "detail", "tech_stack", "github_url", "team_members",
	"thumbnail_url", "pdf_url", "order", "is_visible", "created_by", "created_at", "updated_at",
}

const projectColumns = `id, title, generation, description, detail, tech_stack, github_url, team_members,
	thumbnail_url, pdf_url, "order", is_visible, created_by, created_at, updated_at`

type projectRow struct {
	ID           int       `boil:"id"`
	Title        string    `boil:"title"`
	Generation   int       `boil:"generation"`
	Description  string    `boil:"description"`
	Detail       string    `boil:"detail"`
	TechStack    string    `boil:"tech_stack"`
	GithubURL    string    `boil:"github_url"`
	TeamMembers  string    `boil:"team_members"`
	ThumbnailURL string    `boil:"thumbnail_url"`
	PdfURL       string    `boil:"pdf_url"`
	Order        int       `boil:"order"`
	IsVisible    bool      `boil:"is_visible"`
	CreatedBy    null.Int  `boil:"created_by"`
	CreatedAt    time.Time `boil:"created_at"`
	UpdatedAt    time.Time `boil:"updated_at"`
}

func (row projectRow) unboil() project.Project {
	return project.Project{
		ID:           row.ID,
		Title:        row.Title,
		Generation:   row.Generation,
		Description:  row.Description,
		Detail:       row.Detail,
		TechStack:    row.TechStack,
		GithubURL:    row.GithubURL,
		TeamMembers:  row.TeamMembers,
		ThumbnailURL: row.ThumbnailURL,
		PdfURL:       row.PdfURL,
		Order:        row.Order,
		IsVisible:    row.IsVisible,
		CreatedBy:    row.CreatedBy,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func projectArgs(p project.Project) []interface{} {
	return []interface{}{
		p.Title, p.Generation, p.Description, p.Detail, p.TechStack, p.GithubURL, p.TeamMembers,
		p.ThumbnailURL, p.PdfURL, p.Order, p.IsVisible, p.CreatedBy, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}
}

type projectRepository struct {
	exec core.DBExecutor
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(exec core.DBExecutor) project.Repository {
	return &projectRepository{exec: exec}
}

func (repo *projectRepository) ListProjects(ctx context.Context, filter project.ListFilter) ([]project.Project, error) {
	mods := []qm.QueryMod{
		qm.Select(projectColumns),
		qm.From(projectsTable),
		qm.OrderBy(`"order" ASC, created_at DESC, id DESC`),
	}
	if !filter.IncludeHidden {
		mods = append(mods, qm.Where("is_visible = ?", true))
	}

	var rows []projectRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting projects")
	}
	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.unboil())
	}
	return projects, nil
}

func (repo *projectRepository) GetProject(ctx context.Context, id int) (project.Project, error) {
	var row projectRow
	err := newQuery(
		qm.Select(projectColumns),
		qm.From(projectsTable),
		qm.Where("id = ?", id),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, errors.Wrap(err, "selecting project")
	}
	return row.unboil(), nil
}

func (repo *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	id, err := insert(ctx, repo.exec, projectsTable, projectWritable, projectArgs(p)...)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	p.ID = id
	return p, nil
}

func (repo *projectRepository) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	n, err := update(ctx, repo.exec, projectsTable, p.ID, projectWritable, projectArgs(p)...)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	if n == 0 {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (repo *projectRepository) DeleteProject(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM `+projectsTable+` WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	if err != nil {
		return errors.Wrap(err, "deleting project")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return project.ErrNotFound
	}
	return nil
}

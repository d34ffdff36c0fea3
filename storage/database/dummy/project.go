package dummydb

import (
	"context"
	"sort"

	"github.com/likelion-sch/recruit/core/project"
)

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) ListProjects(_ context.Context, filter project.ListFilter) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]project.Project, 0, len(repo.db.projects))
	for _, p := range repo.db.projects {
		if p.IsVisible || filter.IncludeHidden {
			projects = append(projects, *p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return projects, nil
}

func (repo *projectRepository) GetProject(_ context.Context, id int) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.projects[id]; ok {
		return *p, nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = repo.db.nextID("projects")
	repo.db.projects[p.ID] = &p
	return p, nil
}

func (repo *projectRepository) UpdateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.projects[p.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	repo.db.projects[p.ID] = &p
	return p, nil
}

func (repo *projectRepository) DeleteProject(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.projects[id]; !ok {
		return project.ErrNotFound
	}
	delete(repo.db.projects, id)
	return nil
}

package biz

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/id"
)

// ProjectService 项目管理。
type ProjectService struct {
	factory store.Factory
	vectors store.VectorStore
}

// NewProjectService 创建项目服务。
func NewProjectService(factory store.Factory, vectors store.VectorStore) *ProjectService {
	return &ProjectService{factory: factory, vectors: vectors}
}

// Create 创建项目。
func (s *ProjectService) Create(ctx context.Context, name, description string) (*model.Project, error) {
	project := &model.Project{
		ID:          id.New(),
		Name:        name,
		Description: description,
	}
	if err := s.factory.Projects().Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// Get 按 ID 查询项目。
func (s *ProjectService) Get(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.factory.Projects().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// List 列出全部项目。
func (s *ProjectService) List(ctx context.Context) ([]*model.Project, error) {
	return s.factory.Projects().List(ctx)
}

// Delete 删除项目记录。项目下的文档需先逐个删除。
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	if _, err := s.Get(ctx, projectID); err != nil {
		return err
	}

	count, err := s.factory.Documents().CountByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("project has %d documents, delete them first", count)
	}

	return s.factory.Projects().Delete(ctx, projectID)
}

// Stats 服务级统计信息。
type Stats struct {
	Projects  int64 `json:"projects"`
	Documents int64 `json:"documents"`
	Chunks    int64 `json:"chunks"`
}

// GetStats 汇总项目、文档与向量索引的规模。
func (s *ProjectService) GetStats(ctx context.Context) (*Stats, error) {
	projects, err := s.factory.Projects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var docs int64
	for _, project := range projects {
		count, err := s.factory.Documents().CountByProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count documents: %w", err)
		}
		docs += count
	}

	chunks, err := s.vectors.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors: %w", err)
	}

	return &Stats{
		Projects:  int64(len(projects)),
		Documents: docs,
		Chunks:    chunks,
	}, nil
}

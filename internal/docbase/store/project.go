package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/model"
)

type projects struct {
	db *gorm.DB
}

var _ ProjectStore = (*projects)(nil)

func newProjects(db *gorm.DB) *projects {
	return &projects{db: db}
}

func (p *projects) Create(ctx context.Context, project *model.Project) error {
	return p.db.WithContext(ctx).Create(project).Error
}

func (p *projects) Get(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (p *projects) List(ctx context.Context) ([]*model.Project, error) {
	var list []*model.Project
	if err := p.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (p *projects) Delete(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Project{}).Error
}

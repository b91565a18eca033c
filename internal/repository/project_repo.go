package repository

import (
	"context"
	"errors"

	"github.com/stsphera/notify-engine/internal/domain"
	"gorm.io/gorm"
)

// ProjectRepository exposes the single project lookup the dispatcher needs
// for payload enrichment.
type ProjectRepository interface {
	GetName(ctx context.Context, id string) (string, error)
}

type GormProjectRepo struct {
	db *gorm.DB
}

func NewGormProjectRepo(db *gorm.DB) *GormProjectRepo {
	return &GormProjectRepo{db: db}
}

func (r *GormProjectRepo) GetName(ctx context.Context, id string) (string, error) {
	var model ProjectModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return model.Name, nil
}

package repository

import (
	"context"

	"github.com/stsphera/notify-engine/internal/domain"
	"gorm.io/gorm"
)

// RecipientRepository looks up deliverable endpoints for the resolver.
// Profiles without a Telegram chat ID are filtered out at the query level.
type RecipientRepository interface {
	GetByChatIDs(ctx context.Context, chatIDs []string) ([]domain.RecipientEndpoint, error)
	GetByRoles(ctx context.Context, roles []string) ([]domain.RecipientEndpoint, error)
}

type GormRecipientRepo struct {
	db *gorm.DB
}

func NewGormRecipientRepo(db *gorm.DB) *GormRecipientRepo {
	return &GormRecipientRepo{db: db}
}

func (r *GormRecipientRepo) GetByChatIDs(ctx context.Context, chatIDs []string) ([]domain.RecipientEndpoint, error) {
	if len(chatIDs) == 0 {
		return nil, nil
	}

	var models []ProfileModel
	err := r.db.WithContext(ctx).
		Where("telegram_chat_id IN ?", chatIDs).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return endpointsFromProfiles(models), nil
}

func (r *GormRecipientRepo) GetByRoles(ctx context.Context, roles []string) ([]domain.RecipientEndpoint, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	var models []ProfileModel
	err := r.db.WithContext(ctx).
		Model(&ProfileModel{}).
		Joins("JOIN user_roles ON user_roles.user_id = profiles.user_id").
		Where("user_roles.role IN ?", roles).
		Where("profiles.telegram_chat_id IS NOT NULL").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return endpointsFromProfiles(models), nil
}

func endpointsFromProfiles(models []ProfileModel) []domain.RecipientEndpoint {
	endpoints := make([]domain.RecipientEndpoint, 0, len(models))
	for i := range models {
		if endpoint := profileModelToEndpoint(&models[i]); endpoint != nil {
			endpoints = append(endpoints, *endpoint)
		}
	}
	return endpoints
}

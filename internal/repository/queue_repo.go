package repository

import (
	"context"
	"time"

	"github.com/stsphera/notify-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// priorityRankSQL orders claims critical > high > normal > low.
const priorityRankSQL = `CASE priority
	WHEN 'critical' THEN 4
	WHEN 'high' THEN 3
	WHEN 'normal' THEN 2
	ELSE 1
END DESC, scheduled_at ASC`

// QueueRepository is the dispatch worker's contract with the queue store.
type QueueRepository interface {
	Insert(ctx context.Context, entry *domain.QueueEntry) error
	// ClaimDueBatch atomically selects up to maxCount due pending entries in
	// priority-then-schedule order and consumes one attempt on each. Rows
	// claimed by a concurrent invocation are skipped, never returned twice.
	ClaimDueBatch(ctx context.Context, maxCount int, now time.Time) ([]domain.QueueEntry, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkSkipped(ctx context.Context, id string, reason string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	// Reschedule keeps the entry pending and moves scheduled_at forward.
	Reschedule(ctx context.Context, id string, at time.Time, lastError *string) error
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormQueueRepo struct {
	db *gorm.DB
}

func NewGormQueueRepo(db *gorm.DB) *GormQueueRepo {
	return &GormQueueRepo{db: db}
}

func (r *GormQueueRepo) Insert(ctx context.Context, entry *domain.QueueEntry) error {
	model := entryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if entry != nil {
		*entry = *entryModelToDomain(model)
	}
	return nil
}

func (r *GormQueueRepo) ClaimDueBatch(ctx context.Context, maxCount int, now time.Time) ([]domain.QueueEntry, error) {
	var models []QueueEntryModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND scheduled_at <= ? AND attempts < max_attempts",
				domain.StatusPending, now).
			Order(priorityRankSQL).
			Limit(maxCount).
			Find(&models).Error
		if err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}

		ids := make([]string, 0, len(models))
		for i := range models {
			ids = append(ids, models[i].ID)
		}

		// The increment happens inside the claim transaction so a crash
		// mid-processing still consumes an attempt.
		return tx.Model(&QueueEntryModel{}).
			Where("id IN ?", ids).
			Update("attempts", gorm.Expr("attempts + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.QueueEntry, 0, len(models))
	for i := range models {
		models[i].Attempts++
		entries = append(entries, *entryModelToDomain(&models[i]))
	}

	return entries, nil
}

func (r *GormQueueRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return r.updateByID(ctx, id, map[string]any{
		"status":  domain.StatusSent,
		"sent_at": sentAt,
	})
}

func (r *GormQueueRepo) MarkSkipped(ctx context.Context, id string, reason string) error {
	return r.updateByID(ctx, id, map[string]any{
		"status":     domain.StatusSkipped,
		"last_error": reason,
	})
}

func (r *GormQueueRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.updateByID(ctx, id, map[string]any{
		"status":     domain.StatusFailed,
		"last_error": reason,
	})
}

func (r *GormQueueRepo) Reschedule(ctx context.Context, id string, at time.Time, lastError *string) error {
	fields := map[string]any{
		"status":       domain.StatusPending,
		"scheduled_at": at,
	}
	if lastError != nil {
		fields["last_error"] = *lastError
	}
	return r.updateByID(ctx, id, fields)
}

func (r *GormQueueRepo) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND COALESCE(sent_at, updated_at) < ?",
			domain.TerminalStatuses(), cutoff).
		Delete(&QueueEntryModel{})
	return result.RowsAffected, result.Error
}

func (r *GormQueueRepo) updateByID(ctx context.Context, id string, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&QueueEntryModel{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

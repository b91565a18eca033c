package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stsphera/notify-engine/internal/domain"
	"go.uber.org/zap"
)

type insertRecordingRepo struct {
	fakeQueueRepo
	inserted  []*domain.QueueEntry
	insertErr error
}

func (r *insertRecordingRepo) Insert(ctx context.Context, entry *domain.QueueEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, entry)
	return nil
}

func newTestEnqueueService(t *testing.T, repo *insertRecordingRepo) *EnqueueService {
	t.Helper()

	svc, err := NewEnqueueService(repo, 3, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEnqueueService() error = %v", err)
	}
	svc.now = func() time.Time { return daytimeUTC }
	return svc
}

func TestEnqueueAppliesDefaults(t *testing.T) {
	t.Parallel()

	repo := &insertRecordingRepo{}
	svc := newTestEnqueueService(t, repo)

	entry, err := svc.Enqueue(context.Background(), EnqueueRequest{
		EventType:   domain.EventReportMissing,
		TargetRoles: []string{"foreman"},
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("entry.ID is empty, want generated UUID")
	}
	if entry.Priority != domain.PriorityNormal {
		t.Errorf("entry.Priority = %q, want %q", entry.Priority, domain.PriorityNormal)
	}
	if entry.Status != domain.StatusPending {
		t.Errorf("entry.Status = %q, want %q", entry.Status, domain.StatusPending)
	}
	if entry.Attempts != 0 {
		t.Errorf("entry.Attempts = %d, want 0", entry.Attempts)
	}
	if entry.MaxAttempts != 3 {
		t.Errorf("entry.MaxAttempts = %d, want 3", entry.MaxAttempts)
	}
	if !entry.ScheduledAt.Equal(daytimeUTC) {
		t.Errorf("entry.ScheduledAt = %v, want %v", entry.ScheduledAt, daytimeUTC)
	}
	if entry.Payload == nil {
		t.Error("entry.Payload is nil, want empty map")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("Insert called %d times, want 1", len(repo.inserted))
	}
}

func TestEnqueueHonorsFutureSchedule(t *testing.T) {
	t.Parallel()

	repo := &insertRecordingRepo{}
	svc := newTestEnqueueService(t, repo)

	future := daytimeUTC.Add(2 * time.Hour)
	entry, err := svc.Enqueue(context.Background(), EnqueueRequest{
		EventType:     domain.EventDirectorDigest,
		TargetChatIDs: []string{"555"},
		Priority:      "low",
		ScheduledAt:   &future,
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if !entry.ScheduledAt.Equal(future) {
		t.Errorf("entry.ScheduledAt = %v, want %v", entry.ScheduledAt, future)
	}
	if entry.Priority != domain.PriorityLow {
		t.Errorf("entry.Priority = %q, want low", entry.Priority)
	}
}

func TestEnqueueClampsPastScheduleToNow(t *testing.T) {
	t.Parallel()

	repo := &insertRecordingRepo{}
	svc := newTestEnqueueService(t, repo)

	past := daytimeUTC.Add(-time.Hour)
	entry, err := svc.Enqueue(context.Background(), EnqueueRequest{
		EventType:     domain.EventTaskOverdue,
		TargetChatIDs: []string{"555"},
		ScheduledAt:   &past,
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if !entry.ScheduledAt.Equal(daytimeUTC) {
		t.Errorf("entry.ScheduledAt = %v, want clamped to %v", entry.ScheduledAt, daytimeUTC)
	}
}

func TestEnqueueValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  EnqueueRequest
	}{
		{
			name: "missing event type",
			req:  EnqueueRequest{TargetChatIDs: []string{"1"}},
		},
		{
			name: "invalid priority",
			req:  EnqueueRequest{EventType: domain.EventAlertCreated, TargetChatIDs: []string{"1"}, Priority: "urgent"},
		},
		{
			name: "no targets",
			req:  EnqueueRequest{EventType: domain.EventAlertCreated},
		},
		{
			name: "both target kinds",
			req: EnqueueRequest{
				EventType:     domain.EventAlertCreated,
				TargetRoles:   []string{"foreman"},
				TargetChatIDs: []string{"1"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &insertRecordingRepo{}
			svc := newTestEnqueueService(t, repo)

			_, err := svc.Enqueue(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Enqueue() error = %v, want ErrValidation", err)
			}
			if len(repo.inserted) != 0 {
				t.Error("invalid request reached the repository")
			}
		})
	}
}

func TestEnqueueInsertFailure(t *testing.T) {
	t.Parallel()

	repo := &insertRecordingRepo{insertErr: errors.New("deadlock detected")}
	svc := newTestEnqueueService(t, repo)

	_, err := svc.Enqueue(context.Background(), EnqueueRequest{
		EventType:     domain.EventAlertCreated,
		TargetChatIDs: []string{"1"},
	})
	if err == nil {
		t.Fatal("Enqueue() error = nil, want insert failure")
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stsphera/notify-engine/internal/domain"
	"github.com/stsphera/notify-engine/internal/format"
	"github.com/stsphera/notify-engine/internal/observability"
	"github.com/stsphera/notify-engine/internal/quiet"
	"github.com/stsphera/notify-engine/internal/ratelimit"
	"github.com/stsphera/notify-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultBatchSize    = 20
	defaultRetryDelay   = 5 * time.Minute
	defaultSendInterval = 35 * time.Millisecond
	defaultRetention    = 7 * 24 * time.Hour
)

// RecipientResolver maps an entry's targets to deliverable endpoints.
type RecipientResolver interface {
	Resolve(ctx context.Context, entry *domain.QueueEntry) ([]domain.RecipientEndpoint, error)
}

// Transport performs one outbound send per call.
type Transport interface {
	Send(ctx context.Context, chatID string, text string) error
}

// Summary reports one invocation's outcomes. Deferred entries count as
// skipped and rescheduled retries count as failed, mirroring what the trigger
// response exposes to operators.
type Summary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// DispatcherOptions tune one invocation's behavior.
type DispatcherOptions struct {
	BatchSize    int
	RetryDelay   time.Duration
	SendInterval time.Duration
	Retention    time.Duration
}

// Dispatcher is the queue processing worker. One RunOnce call claims a batch
// of due entries, fans each out to its recipients, and records per-entry
// outcomes; entries are processed sequentially to keep send pacing simple.
type Dispatcher struct {
	queue     repository.QueueRepository
	resolver  RecipientResolver
	projects  repository.ProjectRepository
	transport Transport
	policy    *quiet.Policy
	logger    *zap.Logger
	metrics   *observability.Metrics
	opts      DispatcherOptions

	now      func() time.Time
	newPacer func() ratelimit.Pacer
}

func NewDispatcher(
	queue repository.QueueRepository,
	resolver RecipientResolver,
	projects repository.ProjectRepository,
	transport Transport,
	policy *quiet.Policy,
	opts DispatcherOptions,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if queue == nil {
		return nil, fmt.Errorf("queue repository is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("recipient resolver is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("quiet-hours policy is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.SendInterval < 0 {
		opts.SendInterval = defaultSendInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}

	d := &Dispatcher{
		queue:     queue,
		resolver:  resolver,
		projects:  projects,
		transport: transport,
		policy:    policy,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
	d.newPacer = func() ratelimit.Pacer {
		return ratelimit.NewIntervalPacer(d.opts.SendInterval)
	}

	return d, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

type outcome string

const (
	outcomeSent     outcome = "sent"
	outcomeSkipped  outcome = "skipped"
	outcomeFailed   outcome = "failed"
	outcomeDeferred outcome = "deferred"
	outcomeRetry    outcome = "retry"
)

// RunOnce performs one dispatch invocation. Per-entry failures are contained;
// the returned error only reflects infrastructure-level faults on the claim.
func (d *Dispatcher) RunOnce(ctx context.Context) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := d.now()
	now := start.UTC()

	entries, err := d.queue.ClaimDueBatch(ctx, d.opts.BatchSize, now)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to claim due batch: %w", err)
	}
	if len(entries) == 0 {
		return Summary{}, nil
	}

	summary := Summary{Processed: len(entries)}
	pacer := d.newPacer()

	for i := range entries {
		entry := &entries[i]

		result := d.processEntry(ctx, entry, pacer)
		d.metrics.IncEntryProcessed(entry.EventType, string(result))

		switch result {
		case outcomeSent:
			summary.Sent++
		case outcomeSkipped, outcomeDeferred:
			summary.Skipped++
		case outcomeFailed, outcomeRetry:
			summary.Failed++
		}
	}

	d.cleanup(ctx, now)
	d.metrics.ObserveTickDuration(d.now().Sub(start))

	d.logger.Info("dispatch invocation finished",
		zap.Int("processed", summary.Processed),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

// processEntry runs one claimed entry through resolution, enrichment,
// formatting, quiet hours, and the paced fan-out. The claim already consumed
// one attempt, so a crash anywhere in here still counts toward the budget.
func (d *Dispatcher) processEntry(ctx context.Context, entry *domain.QueueEntry, pacer ratelimit.Pacer) outcome {
	logger := observability.EntryLogger(d.logger, entry.ID, entry.EventType)
	now := d.now().UTC()

	endpoints, err := d.resolver.Resolve(ctx, entry)
	if err != nil {
		logger.Error("recipient resolution failed", zap.Error(err))
		return d.retryOrFail(ctx, entry, now, err.Error(), logger)
	}
	if len(endpoints) == 0 {
		logger.Info("no deliverable recipients, skipping")
		d.markSkipped(ctx, entry, "no deliverable recipients", logger)
		return outcomeSkipped
	}

	d.enrichProjectName(ctx, entry, logger)

	text, known := format.Message(entry.EventType, entry.Payload)
	if !known {
		logger.Warn("unknown event type, skipping")
		d.markSkipped(ctx, entry, fmt.Sprintf("unknown event type %q", entry.EventType), logger)
		return outcomeSkipped
	}

	// Quiet hours are evaluated for every recipient before the first send so
	// a suppressed recipient defers the entry instead of splitting the
	// fan-out across invocations.
	if deferred, next := d.quietHoursDeferral(endpoints, entry.Priority, now); deferred {
		if entry.Attempts >= entry.MaxAttempts {
			d.markFailed(ctx, entry, "retry budget exhausted while deferred by quiet hours", logger)
			return outcomeFailed
		}

		logger.Info("deferred by quiet hours", zap.Time("nextEligible", next))
		if err := d.queue.Reschedule(ctx, entry.ID, next, nil); err != nil {
			logger.Error("failed to reschedule deferred entry", zap.Error(err))
		}
		return outcomeDeferred
	}

	failedSends := 0
	var lastSendErr error
	for i := range endpoints {
		if err := pacer.Wait(ctx); err != nil {
			// Invocation cut short; unsent recipients ride the retry path.
			failedSends += len(endpoints) - i
			lastSendErr = err
			break
		}

		sendStart := d.now()
		err := d.transport.Send(ctx, endpoints[i].ChatID, text)
		d.metrics.ObserveSendDuration(d.now().Sub(sendStart))

		if err != nil {
			failedSends++
			lastSendErr = err
			logger.Warn("send failed",
				zap.String("chatId", endpoints[i].ChatID),
				zap.Error(err),
			)
		}
	}

	if failedSends == 0 {
		sentAt := d.now().UTC()
		if err := d.queue.MarkSent(ctx, entry.ID, sentAt); err != nil {
			logger.Error("failed to mark entry as sent", zap.Error(err))
		}
		logger.Debug("entry sent", zap.Int("recipients", len(endpoints)))
		return outcomeSent
	}

	reason := fmt.Sprintf("%d/%d sends failed: %v", failedSends, len(endpoints), lastSendErr)
	return d.retryOrFail(ctx, entry, now, reason, logger)
}

// retryOrFail reschedules a transiently failed entry with the fixed backoff,
// or finalizes it once the attempt budget is spent.
func (d *Dispatcher) retryOrFail(ctx context.Context, entry *domain.QueueEntry, now time.Time, reason string, logger *zap.Logger) outcome {
	if entry.Attempts >= entry.MaxAttempts {
		d.markFailed(ctx, entry, reason, logger)
		return outcomeFailed
	}

	retryAt := now.Add(d.opts.RetryDelay)
	if err := d.queue.Reschedule(ctx, entry.ID, retryAt, &reason); err != nil {
		logger.Error("failed to reschedule entry for retry", zap.Error(err))
		return outcomeRetry
	}

	d.metrics.IncRetryScheduled()
	logger.Info("retry scheduled",
		zap.Int("attempt", entry.Attempts),
		zap.Time("retryAt", retryAt),
	)
	return outcomeRetry
}

func (d *Dispatcher) markSkipped(ctx context.Context, entry *domain.QueueEntry, reason string, logger *zap.Logger) {
	if err := d.queue.MarkSkipped(ctx, entry.ID, reason); err != nil {
		logger.Error("failed to mark entry as skipped", zap.Error(err))
	}
}

func (d *Dispatcher) markFailed(ctx context.Context, entry *domain.QueueEntry, reason string, logger *zap.Logger) {
	if err := d.queue.MarkFailed(ctx, entry.ID, reason); err != nil {
		logger.Error("failed to mark entry as failed", zap.Error(err))
	}
	logger.Warn("entry permanently failed",
		zap.Int("attempts", entry.Attempts),
		zap.String("reason", reason),
	)
}

// enrichProjectName fills payload["project_name"] from the projects table
// when the entry references a project and the producer left the name out.
// Best-effort: lookup failures are logged and the message proceeds.
func (d *Dispatcher) enrichProjectName(ctx context.Context, entry *domain.QueueEntry, logger *zap.Logger) {
	if d.projects == nil || entry.ProjectID == nil {
		return
	}
	if _, ok := entry.Payload["project_name"]; ok {
		return
	}

	name, err := d.projects.GetName(ctx, *entry.ProjectID)
	if err != nil {
		logger.Warn("project name lookup failed",
			zap.String("projectId", *entry.ProjectID),
			zap.Error(err),
		)
		return
	}

	if entry.Payload == nil {
		entry.Payload = domain.Payload{}
	}
	entry.Payload["project_name"] = name
}

// quietHoursDeferral reports whether any recipient suppresses the entry right
// now, and the earliest instant at which every suppressed window has ended.
func (d *Dispatcher) quietHoursDeferral(endpoints []domain.RecipientEndpoint, priority domain.Priority, now time.Time) (bool, time.Time) {
	var earliest time.Time
	for i := range endpoints {
		decision := d.policy.Check(endpoints[i].Preferences, priority, now)
		if decision.Allow {
			continue
		}
		if earliest.IsZero() || decision.NextEligible.Before(earliest) {
			earliest = decision.NextEligible
		}
	}
	return !earliest.IsZero(), earliest
}

func (d *Dispatcher) cleanup(ctx context.Context, now time.Time) {
	cutoff := now.Add(-d.opts.Retention)
	deleted, err := d.queue.DeleteTerminalOlderThan(ctx, cutoff)
	if err != nil {
		d.logger.Error("retention cleanup failed", zap.Error(err))
		return
	}

	d.metrics.AddEntriesDeleted(deleted)
	if deleted > 0 {
		d.logger.Debug("retention cleanup removed entries", zap.Int64("deleted", deleted))
	}
}

// Package resolver turns a queue entry's target specification into concrete
// deliverable endpoints.
package resolver

import (
	"context"
	"fmt"

	"github.com/stsphera/notify-engine/internal/domain"
	"github.com/stsphera/notify-engine/internal/repository"
)

// Resolver maps target roles or explicit chat IDs to recipient endpoints.
// Explicit chat IDs take precedence over roles; the producer contract keeps
// the two mutually exclusive, so precedence only matters for malformed rows.
type Resolver struct {
	recipients repository.RecipientRepository
}

func New(recipients repository.RecipientRepository) (*Resolver, error) {
	if recipients == nil {
		return nil, fmt.Errorf("recipient repository is required")
	}
	return &Resolver{recipients: recipients}, nil
}

// Resolve returns the deduplicated endpoints for an entry's targets.
// Recipients without a configured chat ID are silently dropped; an empty
// result means the entry has nobody to deliver to and should be skipped.
func (r *Resolver) Resolve(ctx context.Context, entry *domain.QueueEntry) ([]domain.RecipientEndpoint, error) {
	var (
		endpoints []domain.RecipientEndpoint
		err       error
	)

	switch {
	case len(entry.TargetChatIDs) > 0:
		endpoints, err = r.recipients.GetByChatIDs(ctx, entry.TargetChatIDs)
	case len(entry.TargetRoles) > 0:
		endpoints, err = r.recipients.GetByRoles(ctx, entry.TargetRoles)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	return dedupe(endpoints), nil
}

// dedupe keeps the first endpoint per chat ID; a user holding two matching
// roles appears once.
func dedupe(endpoints []domain.RecipientEndpoint) []domain.RecipientEndpoint {
	if len(endpoints) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(endpoints))
	unique := make([]domain.RecipientEndpoint, 0, len(endpoints))
	for _, endpoint := range endpoints {
		if _, ok := seen[endpoint.ChatID]; ok {
			continue
		}
		seen[endpoint.ChatID] = struct{}{}
		unique = append(unique, endpoint)
	}
	return unique
}

package bot

import (
	"context"
	"fmt"
)

// BroadcastResult tallies the outcome of one broadcast run.
type BroadcastResult struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
}

// Broadcast sends a message to each recipient in turn, paced by the
// broadcast rate limiter. An empty recipient list means all known users.
// Individual delivery failures are tallied, not fatal; the call itself
// fails only when the transport is down or the recipient list cannot be
// loaded.
func (s *Service) Broadcast(ctx context.Context, message string, recipientIDs []string) (BroadcastResult, error) {
	client := s.currentClient()
	if client == nil {
		return BroadcastResult{}, ErrNotRunning
	}

	targets := recipientIDs
	if len(targets) == 0 {
		users, err := s.store.ListUsers(ctx)
		if err != nil {
			return BroadcastResult{}, fmt.Errorf("failed to list broadcast recipients: %w", err)
		}
		targets = make([]string, 0, len(users))
		for _, u := range users {
			targets = append(targets, u.TelegramID)
		}
	}

	var result BroadcastResult
	for _, id := range targets {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.WarnContext(ctx, "Broadcast interrupted", "sent", result.SuccessCount, "failed", result.FailCount, "error", err)
			return result, nil
		}

		if _, err := client.SendText(ctx, id, message, nil); err != nil {
			result.FailCount++
			s.logger.ErrorContext(ctx, "Failed to deliver broadcast message", "telegram_id", id, "error", err)
			continue
		}
		result.SuccessCount++
	}

	s.logger.InfoContext(ctx, "Broadcast finished", "recipients", len(targets), "sent", result.SuccessCount, "failed", result.FailCount)
	return result, nil
}

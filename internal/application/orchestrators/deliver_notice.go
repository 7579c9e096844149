package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"roster/internal/adapters/email"
	emailDomain "roster/internal/domain/email"
)

// TeamCreatedExecutor mails the welcome notice for a new team.
type TeamCreatedExecutor struct {
	Sender email.Sender
}

// Execute delivers a TeamCreatedNotice.
// PRE: payload is JSON for emailDomain.TeamCreatedNotice
// POST: returns the provider message id
// INVARIANT: outbox entry status managed by caller
func (e *TeamCreatedExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var n emailDomain.TeamCreatedNotice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	req, err := email.TeamCreatedMessage(n)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	res, err := e.Sender.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// TeamJoinedExecutor mails the joiner and the team's admin.
type TeamJoinedExecutor struct {
	Sender email.Sender
}

// Execute delivers a TeamJoinedNotice as one batch.
// PRE: payload is JSON for emailDomain.TeamJoinedNotice
// POST: returns the provider message ids joined by commas
// INVARIANT: outbox entry status managed by caller
func (e *TeamJoinedExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var n emailDomain.TeamJoinedNotice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	reqs, err := email.TeamJoinedMessages(n)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	results, err := e.Sender.SendBatch(ctx, reqs)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.MessageID)
	}
	return strings.Join(ids, ","), nil
}

// NoticeExecutors maps every notice kind to its executor.
func NoticeExecutors(sender email.Sender) map[string]ActionExecutor {
	return map[string]ActionExecutor{
		emailDomain.KindTeamCreated: &TeamCreatedExecutor{Sender: sender},
		emailDomain.KindTeamJoined:  &TeamJoinedExecutor{Sender: sender},
	}
}

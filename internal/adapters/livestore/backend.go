// Package livestore is the live backing store: SQLite persistence plus a
// change feed, so readers can watch a record set and re-read it after
// every write.
package livestore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"roster/internal/adapters/changefeed"
	"roster/internal/adapters/storage"
	lineupStore "roster/internal/adapters/storage/lineup"
	memberStore "roster/internal/adapters/storage/member"
	membershipStore "roster/internal/adapters/storage/membership"
	teamStore "roster/internal/adapters/storage/team"
	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// ErrEmptyKey is returned when a watch is opened without a key.
var ErrEmptyKey = errors.New("watch key cannot be empty")

// Reload delays after a transport failure while watching.
const (
	DefaultRetryBase = 500 * time.Millisecond
	DefaultRetryMax  = 30 * time.Second
)

// WatchObserver is told when watches open and close.
type WatchObserver interface {
	WatchOpened(kind string)
	WatchClosed(kind string)
}

// Deps holds the stores and feed a Backend is built from.
type Deps struct {
	Teams       teamStore.Store
	Members     memberStore.Store
	Lineups     lineupStore.Store
	Memberships membershipStore.Store
	Feed        *changefeed.Hub
	Observer    WatchObserver // optional
	RetryBase   time.Duration // zero means DefaultRetryBase
	RetryMax    time.Duration // zero means DefaultRetryMax
}

// Backend reads and writes roster state and notifies watchers.
type Backend struct {
	teams       teamStore.Store
	members     memberStore.Store
	lineups     lineupStore.Store
	memberships membershipStore.Store
	feed        *changefeed.Hub
	observer    WatchObserver
	retryBase   time.Duration
	retryMax    time.Duration
}

// New creates a Backend.
// PRE: every store and the feed are non-nil
func New(deps Deps) *Backend {
	if deps.RetryBase <= 0 {
		deps.RetryBase = DefaultRetryBase
	}
	if deps.RetryMax < deps.RetryBase {
		deps.RetryMax = max(DefaultRetryMax, deps.RetryBase)
	}
	return &Backend{
		teams:       deps.Teams,
		members:     deps.Members,
		lineups:     deps.Lineups,
		memberships: deps.Memberships,
		feed:        deps.Feed,
		observer:    deps.Observer,
		retryBase:   deps.RetryBase,
		retryMax:    deps.RetryMax,
	}
}

// WatchMembership delivers uid's membership now and after every change.
// PRE: uid is non-empty
// POST: fn is called from a separate goroutine until ctx ends
func (b *Backend) WatchMembership(ctx context.Context, uid string, fn func(membership.Membership, error)) error {
	if strings.TrimSpace(uid) == "" {
		return apperr.E(apperr.ValidationFailed, "watch_membership", ErrEmptyKey)
	}
	load := func(ctx context.Context) (membership.Membership, error) {
		return b.memberships.Get(ctx, uid)
	}
	watch(ctx, b, "membership", changefeed.UserTopic(uid), load, fn)
	return nil
}

// WatchTeam delivers the team document now and after every change.
func (b *Backend) WatchTeam(ctx context.Context, teamID string, fn func(team.Team, error)) error {
	if strings.TrimSpace(teamID) == "" {
		return apperr.E(apperr.ValidationFailed, "watch_team", ErrEmptyKey)
	}
	load := func(ctx context.Context) (team.Team, error) {
		return b.teams.GetByID(ctx, teamID)
	}
	watch(ctx, b, "team", changefeed.TeamTopic(teamID), load, fn)
	return nil
}

// WatchMembers delivers the team's member collection.
func (b *Backend) WatchMembers(ctx context.Context, teamID string, fn func([]member.Member, error)) error {
	if strings.TrimSpace(teamID) == "" {
		return apperr.E(apperr.ValidationFailed, "watch_members", ErrEmptyKey)
	}
	load := func(ctx context.Context) ([]member.Member, error) {
		return b.members.ListByTeam(ctx, teamID)
	}
	watch(ctx, b, "members", changefeed.MembersTopic(teamID), load, fn)
	return nil
}

// WatchLineups delivers the team's lineup collection.
func (b *Backend) WatchLineups(ctx context.Context, teamID string, fn func([]lineup.Lineup, error)) error {
	if strings.TrimSpace(teamID) == "" {
		return apperr.E(apperr.ValidationFailed, "watch_lineups", ErrEmptyKey)
	}
	load := func(ctx context.Context) ([]lineup.Lineup, error) {
		return b.lineups.List(ctx, teamID, lineupStore.ListFilter{})
	}
	watch(ctx, b, "lineups", changefeed.LineupsTopic(teamID), load, fn)
	return nil
}

// watch subscribes before the first read so no write between the read and
// the subscription is missed. A transport failure is reloaded with
// exponential backoff until a load succeeds or a write arrives; other
// failures wait for the next write.
func watch[T any](ctx context.Context, b *Backend, kind string, topic changefeed.Topic, load func(context.Context) (T, error), fn func(T, error)) {
	sub := b.feed.Subscribe(topic)
	if b.observer != nil {
		b.observer.WatchOpened(kind)
	}
	go func() {
		defer func() {
			sub.Close()
			if b.observer != nil {
				b.observer.WatchClosed(kind)
			}
		}()
		var delay time.Duration
		for {
			v, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			var retry <-chan time.Time
			var timer *time.Timer
			if err != nil && retryable(err) {
				delay = nextRetryDelay(delay, b.retryBase, b.retryMax)
				timer = time.NewTimer(delay)
				retry = timer.C
				slog.Warn("watch_load_failed", "kind", kind, "topic", string(topic), "retry_in", delay.String(), "error", err.Error())
			} else {
				if err != nil {
					slog.Warn("watch_load_failed", "kind", kind, "topic", string(topic), "error", err.Error())
				}
				delay = 0
			}
			fn(v, err)
			select {
			case <-ctx.Done():
			case <-sub.C:
			case <-retry:
			}
			if timer != nil {
				timer.Stop()
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}

// retryable reports whether a failed load may succeed without a write.
func retryable(err error) bool {
	k := apperr.KindOf(err)
	return k == apperr.TransportFailure || k == ""
}

// nextRetryDelay doubles prev, starting at base and capped at limit.
func nextRetryDelay(prev, base, limit time.Duration) time.Duration {
	if prev <= 0 {
		return base
	}
	return min(prev*2, limit)
}

// SaveMember writes a member and notifies watchers.
func (b *Backend) SaveMember(ctx context.Context, teamID string, m member.Member) error {
	if err := b.members.Save(ctx, teamID, m); err != nil {
		return err
	}
	b.feed.Publish(changefeed.MembersTopic(teamID))
	return nil
}

// DeleteMember removes a member and notifies watchers.
func (b *Backend) DeleteMember(ctx context.Context, teamID, id string) error {
	if err := b.members.Delete(ctx, teamID, id); err != nil {
		return err
	}
	b.feed.Publish(changefeed.MembersTopic(teamID))
	return nil
}

// SaveLineup writes one lineup document and notifies watchers.
func (b *Backend) SaveLineup(ctx context.Context, teamID string, l lineup.Lineup) error {
	if err := b.lineups.Save(ctx, teamID, l); err != nil {
		return err
	}
	b.feed.Publish(changefeed.LineupsTopic(teamID))
	return nil
}

// SaveLineups writes documents in order.
// POST: watchers are notified whenever at least one document was written
func (b *Backend) SaveLineups(ctx context.Context, teamID string, ls []lineup.Lineup) (int, error) {
	n, err := b.lineups.SaveMany(ctx, teamID, ls)
	if n > 0 {
		b.feed.Publish(changefeed.LineupsTopic(teamID))
	}
	return n, err
}

// DeleteLineup removes a lineup document and notifies watchers.
func (b *Backend) DeleteLineup(ctx context.Context, teamID, id string) error {
	if err := b.lineups.Delete(ctx, teamID, id); err != nil {
		return err
	}
	b.feed.Publish(changefeed.LineupsTopic(teamID))
	return nil
}

// NewSQLite builds a Backend over the SQLite stores in db.
func NewSQLite(db storage.SQLDB, feed *changefeed.Hub, observer WatchObserver) *Backend {
	return New(Deps{
		Teams:       teamStore.NewSQLiteStore(db),
		Members:     memberStore.NewSQLiteStore(db),
		Lineups:     lineupStore.NewSQLiteStore(db),
		Memberships: membershipStore.NewSQLiteStore(db),
		Feed:        feed,
		Observer:    observer,
	})
}

package syncstore

import (
	"context"
	"errors"
	"sync"

	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// fakeBackend is a map-backed Backend that delivers snapshots from one
// goroutine per watch, coalescing notifications like the live store.
type fakeBackend struct {
	mu          sync.Mutex
	memberships map[string]membership.Membership
	teams       map[string]team.Team
	members     map[string]map[string]member.Member
	lineups     map[string]map[string]lineup.Lineup
	subs        map[string][]chan struct{}

	watchErr  map[string]error // topic -> error delivered instead of data
	saveErr   error
	failAt    int // SaveLineups fails at this index when > 0
	holdFeeds bool
	held      map[string]bool
	saves     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		memberships: map[string]membership.Membership{},
		teams:       map[string]team.Team{},
		members:     map[string]map[string]member.Member{},
		lineups:     map[string]map[string]lineup.Lineup{},
		subs:        map[string][]chan struct{}{},
		watchErr:    map[string]error{},
		held:        map[string]bool{},
	}
}

func (f *fakeBackend) watch(ctx context.Context, topic string, deliver func()) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	f.mu.Lock()
	f.subs[topic] = append(f.subs[topic], ch)
	f.mu.Unlock()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if ctx.Err() != nil {
					return
				}
				deliver()
			}
		}
	}()
}

// notifyLocked wakes watchers of topic. Callers hold f.mu.
func (f *fakeBackend) notifyLocked(topic string) {
	if f.holdFeeds {
		f.held[topic] = true
		return
	}
	for _, ch := range f.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// release delivers every notification held back by holdFeeds.
func (f *fakeBackend) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdFeeds = false
	for topic := range f.held {
		f.notifyLocked(topic)
	}
	f.held = map[string]bool{}
}

func (f *fakeBackend) WatchMembership(ctx context.Context, uid string, fn func(membership.Membership, error)) error {
	topic := "user:" + uid
	f.watch(ctx, topic, func() {
		f.mu.Lock()
		m, ok := f.memberships[uid]
		err := f.watchErr[topic]
		f.mu.Unlock()
		if !ok {
			m = membership.New(membership.Identity{UID: uid})
		}
		fn(m, err)
	})
	return nil
}

func (f *fakeBackend) WatchTeam(ctx context.Context, teamID string, fn func(team.Team, error)) error {
	topic := "team:" + teamID
	f.watch(ctx, topic, func() {
		f.mu.Lock()
		t, ok := f.teams[teamID]
		err := f.watchErr[topic]
		f.mu.Unlock()
		if err == nil && !ok {
			err = apperr.E(apperr.NotFound, "get_team", team.ErrNotFound)
		}
		fn(t, err)
	})
	return nil
}

func (f *fakeBackend) WatchMembers(ctx context.Context, teamID string, fn func([]member.Member, error)) error {
	topic := "members:" + teamID
	f.watch(ctx, topic, func() {
		f.mu.Lock()
		var out []member.Member
		for _, m := range f.members[teamID] {
			out = append(out, m)
		}
		err := f.watchErr[topic]
		f.mu.Unlock()
		fn(out, err)
	})
	return nil
}

func (f *fakeBackend) WatchLineups(ctx context.Context, teamID string, fn func([]lineup.Lineup, error)) error {
	topic := "lineups:" + teamID
	f.watch(ctx, topic, func() {
		f.mu.Lock()
		var out []lineup.Lineup
		for _, l := range f.lineups[teamID] {
			out = append(out, l.Clone())
		}
		err := f.watchErr[topic]
		f.mu.Unlock()
		fn(out, err)
	})
	return nil
}

func (f *fakeBackend) SaveMember(_ context.Context, teamID string, m member.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	if f.members[teamID] == nil {
		f.members[teamID] = map[string]member.Member{}
	}
	f.members[teamID][m.ID] = m
	f.notifyLocked("members:" + teamID)
	return nil
}

func (f *fakeBackend) DeleteMember(_ context.Context, teamID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	delete(f.members[teamID], id)
	f.notifyLocked("members:" + teamID)
	return nil
}

func (f *fakeBackend) SaveLineup(_ context.Context, teamID string, l lineup.Lineup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.putLineupLocked(teamID, l)
	f.notifyLocked("lineups:" + teamID)
	return nil
}

func (f *fakeBackend) SaveLineups(_ context.Context, teamID string, ls []lineup.Lineup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range ls {
		if f.failAt > 0 && i == f.failAt {
			f.notifyLocked("lineups:" + teamID)
			return i, errors.New("connection reset")
		}
		f.putLineupLocked(teamID, l)
	}
	f.notifyLocked("lineups:" + teamID)
	return len(ls), nil
}

func (f *fakeBackend) DeleteLineup(_ context.Context, teamID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	delete(f.lineups[teamID], id)
	f.notifyLocked("lineups:" + teamID)
	return nil
}

func (f *fakeBackend) putLineupLocked(teamID string, l lineup.Lineup) {
	f.saves++
	if f.lineups[teamID] == nil {
		f.lineups[teamID] = map[string]lineup.Lineup{}
	}
	f.lineups[teamID][l.ID] = l.Clone()
}

// Test setup helpers.

func (f *fakeBackend) putTeam(t team.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[t.ID] = t
	f.notifyLocked("team:" + t.ID)
}

func (f *fakeBackend) putMembership(m membership.Membership) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships[m.Identity.UID] = m
	f.notifyLocked("user:" + m.Identity.UID)
}

func (f *fakeBackend) setWatchErr(topic string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.watchErr, topic)
	} else {
		f.watchErr[topic] = err
	}
	f.notifyLocked(topic)
}

func (f *fakeBackend) seedMember(teamID string, m member.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[teamID] == nil {
		f.members[teamID] = map[string]member.Member{}
	}
	f.members[teamID][m.ID] = m
	f.notifyLocked("members:" + teamID)
}

func (f *fakeBackend) seedLineup(teamID string, l lineup.Lineup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lineups[teamID] == nil {
		f.lineups[teamID] = map[string]lineup.Lineup{}
	}
	f.lineups[teamID][l.ID] = l
	f.notifyLocked("lineups:" + teamID)
}

func (f *fakeBackend) lineupCount(teamID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lineups[teamID])
}

// Package syncstore keeps one viewer's live view of their active team,
// its members and its lineups in step with the backing store, and is the
// single path through which roster changes are written.
//
// Subscriptions are layered: the viewer's membership record is watched
// first, and its active team id drives a second layer watching the team
// document, member collection and lineup collection. Mutations write
// through to the backend and never touch the cached view; the view only
// changes when a subscription observes the write.
package syncstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// ErrTeamNotReadable is the cause recorded when a team snapshot arrives
// that the viewer may no longer read.
var ErrTeamNotReadable = errors.New("team is not readable by this viewer")

// Backend is the live data source. Watch* must return before delivering
// anything: fn is always invoked from another goroutine, first with the
// current snapshot and then after every change, until ctx ends.
type Backend interface {
	WatchMembership(ctx context.Context, uid string, fn func(membership.Membership, error)) error
	WatchTeam(ctx context.Context, teamID string, fn func(team.Team, error)) error
	WatchMembers(ctx context.Context, teamID string, fn func([]member.Member, error)) error
	WatchLineups(ctx context.Context, teamID string, fn func([]lineup.Lineup, error)) error

	SaveMember(ctx context.Context, teamID string, m member.Member) error
	DeleteMember(ctx context.Context, teamID, id string) error
	SaveLineup(ctx context.Context, teamID string, l lineup.Lineup) error
	SaveLineups(ctx context.Context, teamID string, ls []lineup.Lineup) (int, error)
	DeleteLineup(ctx context.Context, teamID, id string) error
}

// MutationObserver is told the outcome of every mutation.
type MutationObserver interface {
	ObserveMutation(op string, err error)
}

// Options configures a Store.
type Options struct {
	NewID    func() string // defaults to uuid.NewString
	Observer MutationObserver
}

// Store is one viewer's synchronized view. It is safe for concurrent use.
type Store struct {
	backend  Backend
	newID    func() string
	observer MutationObserver

	mu       sync.Mutex
	gen      uint64 // bumped by Attach and Detach
	layerGen uint64 // bumped whenever the team layer is replaced
	root     context.Context
	cancel   context.CancelFunc
	attached bool
	identity membership.Identity

	membership     membership.Membership
	haveMembership bool
	membershipErr  error

	layer *teamLayer
	lost  error

	view    View
	changed chan struct{}
}

// teamLayer holds the last good snapshot of each team collection.
type teamLayer struct {
	teamID string
	cancel context.CancelFunc

	team        team.Team
	members     []member.Member
	lineups     []lineup.Lineup
	haveTeam    bool
	haveMembers bool
	haveLineups bool

	teamErr    error
	membersErr error
	lineupsErr error
}

func (l *teamLayer) err() error {
	switch {
	case l.teamErr != nil:
		return l.teamErr
	case l.membersErr != nil:
		return l.membersErr
	default:
		return l.lineupsErr
	}
}

func (l *teamLayer) loaded() bool {
	return l.haveTeam && l.haveMembers && l.haveLineups
}

// New creates a detached Store.
func New(backend Backend, opts Options) *Store {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		backend:  backend,
		newID:    opts.NewID,
		observer: opts.Observer,
		view:     View{Status: StatusDetached},
		changed:  make(chan struct{}),
	}
}

// Attach starts watching id's membership and, through it, the active team.
// Any previous attachment is torn down first.
// PRE: id is a signed-in identity
// POST: returns once the view has left StatusLoading, or when ctx ends
func (s *Store) Attach(ctx context.Context, id membership.Identity) (View, error) {
	if id.IsAnonymous() {
		return View{}, apperr.E(apperr.Unauthorized, "attach", membership.ErrAnonymousUser)
	}

	s.mu.Lock()
	s.detachLocked()
	s.gen++
	gen := s.gen
	s.root, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.attached = true
	s.identity = id
	root := s.root
	s.publish()
	s.mu.Unlock()

	slog.Info("sync_event", "event", "attached", "uid", id.UID)

	if err := s.backend.WatchMembership(root, id.UID, s.onMembership(gen)); err != nil {
		err = apperr.Classify(apperr.TransportFailure, "watch_membership", err)
		s.mu.Lock()
		if gen == s.gen {
			s.membershipErr = err
			s.publish()
		}
		s.mu.Unlock()
		return s.View(), err
	}

	return s.Wait(ctx, func(v View) bool { return v.Status != StatusLoading })
}

// Detach cancels every subscription and clears the cached view.
// POST: deliveries from earlier subscriptions are discarded
func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return
	}
	uid := s.identity.UID
	s.detachLocked()
	s.publish()
	slog.Info("sync_event", "event", "detached", "uid", uid)
}

func (s *Store) detachLocked() {
	s.gen++
	s.teardownLayer()
	if s.cancel != nil {
		s.cancel()
	}
	s.root, s.cancel = nil, nil
	s.attached = false
	s.identity = membership.Identity{}
	s.membership = membership.Membership{}
	s.haveMembership = false
	s.membershipErr = nil
	s.lost = nil
}

// View returns the current view. Slices in the view are shared and must
// not be modified.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Status returns the current status.
func (s *Store) Status() Status {
	return s.View().Status
}

// Changed returns a channel that is closed at the next view change.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Wait blocks until pred holds for the current view or ctx ends.
// POST: on success the returned view satisfies pred
func (s *Store) Wait(ctx context.Context, pred func(View) bool) (View, error) {
	for {
		s.mu.Lock()
		v, ch := s.view, s.changed
		s.mu.Unlock()
		if pred(v) {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-ch:
		}
	}
}

func (s *Store) onMembership(gen uint64) func(membership.Membership, error) {
	return func(m membership.Membership, err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		if err != nil {
			s.membershipErr = apperr.Classify(apperr.TransportFailure, "watch_membership", err)
			s.haveMembership = false
			s.teardownLayer()
			slog.Warn("sync_event", "event", "membership_failed", "uid", s.identity.UID, "error", err.Error())
			s.publish()
			return
		}

		s.membershipErr = nil
		s.membership = m
		s.haveMembership = true
		switch active := m.ActiveTeamID; {
		case active == "":
			s.teardownLayer()
			s.lost = nil
		case s.layer == nil || s.layer.teamID != active:
			s.startLayer(gen, active)
		}
		if s.layer != nil && s.layer.haveTeam && !s.capabilities().CanRead {
			s.loseAccess(apperr.E(apperr.Unauthorized, "watch_membership", ErrTeamNotReadable))
		}
		s.publish()
	}
}

// startLayer replaces the team layer with subscriptions on teamID.
func (s *Store) startLayer(gen uint64, teamID string) {
	s.teardownLayer()
	s.lost = nil
	s.layerGen++
	lg := s.layerGen
	ctx, cancel := context.WithCancel(s.root)
	l := &teamLayer{teamID: teamID, cancel: cancel}
	s.layer = l

	slog.Info("sync_event", "event", "team_layer_started", "uid", s.identity.UID, "team_id", teamID)

	// Backends never deliver synchronously, so holding the lock here is safe.
	if err := s.backend.WatchTeam(ctx, teamID, s.onTeam(gen, lg)); err != nil {
		l.teamErr = apperr.Classify(apperr.TransportFailure, "watch_team", err)
	}
	if err := s.backend.WatchMembers(ctx, teamID, s.onMembers(gen, lg)); err != nil {
		l.membersErr = apperr.Classify(apperr.TransportFailure, "watch_members", err)
	}
	if err := s.backend.WatchLineups(ctx, teamID, s.onLineups(gen, lg)); err != nil {
		l.lineupsErr = apperr.Classify(apperr.TransportFailure, "watch_lineups", err)
	}
}

func (s *Store) teardownLayer() {
	if s.layer == nil {
		return
	}
	s.layer.cancel()
	s.layer = nil
	s.layerGen++
}

// current returns the live layer for a handler, or nil if the handler
// belongs to a torn-down subscription.
func (s *Store) current(gen, lg uint64) *teamLayer {
	if gen != s.gen || lg != s.layerGen {
		return nil
	}
	return s.layer
}

func (s *Store) onTeam(gen, lg uint64) func(team.Team, error) {
	return func(t team.Team, err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		l := s.current(gen, lg)
		if l == nil {
			return
		}
		if err != nil {
			s.layerFailure(&l.teamErr, "watch_team", err)
			s.publish()
			return
		}
		l.team, l.haveTeam, l.teamErr = t, true, nil
		if caps := s.capabilities(); !caps.CanRead {
			s.loseAccess(apperr.E(apperr.Unauthorized, "watch_team", ErrTeamNotReadable))
		}
		s.publish()
	}
}

func (s *Store) onMembers(gen, lg uint64) func([]member.Member, error) {
	return func(ms []member.Member, err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		l := s.current(gen, lg)
		if l == nil {
			return
		}
		if err != nil {
			s.layerFailure(&l.membersErr, "watch_members", err)
			s.publish()
			return
		}
		sorted := slices.Clone(ms)
		slices.SortFunc(sorted, member.SortKey)
		l.members, l.haveMembers, l.membersErr = sorted, true, nil
		s.publish()
	}
}

func (s *Store) onLineups(gen, lg uint64) func([]lineup.Lineup, error) {
	return func(ls []lineup.Lineup, err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		l := s.current(gen, lg)
		if l == nil {
			return
		}
		if err != nil {
			s.layerFailure(&l.lineupsErr, "watch_lineups", err)
			s.publish()
			return
		}
		sorted := slices.Clone(ls)
		slices.SortFunc(sorted, lineup.SortKey)
		l.lineups, l.haveLineups, l.lineupsErr = sorted, true, nil
		s.publish()
	}
}

// layerFailure records a subscription error. Not-found and permission
// errors end the team layer; anything else degrades it until the failing
// collection delivers again.
func (s *Store) layerFailure(slot *error, op string, err error) {
	err = apperr.Classify(apperr.TransportFailure, op, err)
	if isAccessError(err) {
		s.loseAccess(err)
		return
	}
	*slot = err
	slog.Warn("sync_event", "event", "degraded", "uid", s.identity.UID, "op", op, "error", err.Error())
}

func (s *Store) loseAccess(err error) {
	teamID := ""
	if s.layer != nil {
		teamID = s.layer.teamID
	}
	s.teardownLayer()
	s.lost = err
	slog.Info("sync_event", "event", "access_lost", "uid", s.identity.UID, "team_id", teamID, "error", err.Error())
}

func isAccessError(err error) bool {
	return errors.Is(err, apperr.NotFound) || errors.Is(err, apperr.Unauthorized)
}

func (s *Store) capabilities() access.Capabilities {
	if s.layer == nil || !s.layer.haveTeam {
		return access.Capabilities{}
	}
	return access.Derive(s.identity.UID, s.layer.team, s.membership.Has(s.layer.teamID))
}

// status derives the current status and its error from internal state.
func (s *Store) status() (Status, error) {
	switch {
	case !s.attached:
		return StatusDetached, nil
	case s.membershipErr != nil:
		return failureStatus(s.membershipErr), s.membershipErr
	case !s.haveMembership:
		return StatusLoading, nil
	case s.membership.ActiveTeamID == "":
		return StatusNoTeam, nil
	case s.lost != nil:
		return StatusAccessLost, s.lost
	case s.layer == nil:
		return StatusLoading, nil
	}
	if err := s.layer.err(); err != nil {
		return failureStatus(err), err
	}
	if !s.layer.loaded() {
		return StatusLoading, nil
	}
	return StatusReady, nil
}

func failureStatus(err error) Status {
	if isAccessError(err) {
		return StatusAccessLost
	}
	return StatusDegraded
}

// publish rebuilds the view and wakes waiters.
func (s *Store) publish() {
	st, err := s.status()
	v := View{Identity: s.identity, Status: st, Err: err}
	if s.haveMembership {
		v.Membership = s.membership
	}
	if st == StatusReady {
		l := s.layer
		v.Team = l.team
		v.Members = l.members
		v.Lineups = l.lineups
		v.Capabilities = s.capabilities()
	}
	s.view = v
	close(s.changed)
	s.changed = make(chan struct{})
}

// authorize returns the active team id when the viewer may edit the roster.
func (s *Store) authorize(op string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.view.Status {
	case StatusReady:
	case StatusDegraded:
		if s.view.Err != nil {
			return "", apperr.E(apperr.TransportFailure, op, s.view.Err)
		}
		return "", apperr.Errorf(apperr.TransportFailure, op, "roster is %s", s.view.Status)
	default:
		return "", apperr.Errorf(apperr.Unauthorized, op, "roster is %s", s.view.Status)
	}
	if !s.view.Capabilities.CanManageRoster {
		return "", apperr.Errorf(apperr.Unauthorized, op, "viewer %s cannot manage team %s", s.identity.UID, s.view.Team.ID)
	}
	return s.view.Team.ID, nil
}

func (s *Store) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveMutation(op, err)
	}
}

// BulkError reports a partially applied bulk write. The first Applied
// documents were written and remain written.
type BulkError struct {
	Applied int
	Err     error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk write stopped after %d documents: %v", e.Applied, e.Err)
}

func (e *BulkError) Unwrap() error {
	return e.Err
}

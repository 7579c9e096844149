package syncstore

import (
	"context"
	"fmt"
	"strings"

	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
)

// AddMember creates a member on the active team.
// PRE: view is Ready and the viewer can manage the roster
// POST: the member is written; the view changes only when the write is observed
func (s *Store) AddMember(ctx context.Context, m member.Member) (out member.Member, err error) {
	const op = "add_member"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return member.Member{}, err
	}
	m = cleanMember(m)
	m.ID = s.newID()
	if err := m.Validate(); err != nil {
		return member.Member{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	if err := s.backend.SaveMember(ctx, teamID, m); err != nil {
		return member.Member{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	return m, nil
}

// UpdateMember replaces an existing member.
// PRE: m.ID names a member in the current view
func (s *Store) UpdateMember(ctx context.Context, m member.Member) (out member.Member, err error) {
	const op = "update_member"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return member.Member{}, err
	}
	if _, ok := s.View().Member(m.ID); !ok {
		return member.Member{}, apperr.Errorf(apperr.NotFound, op, "member %q", m.ID)
	}
	m = cleanMember(m)
	if err := m.Validate(); err != nil {
		return member.Member{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	if err := s.backend.SaveMember(ctx, teamID, m); err != nil {
		return member.Member{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	return m, nil
}

// RemoveMember deletes a member. Lineups that still name the member keep
// the id and show a placeholder name.
func (s *Store) RemoveMember(ctx context.Context, id string) (err error) {
	const op = "remove_member"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return err
	}
	if _, ok := s.View().Member(id); !ok {
		return apperr.Errorf(apperr.NotFound, op, "member %q", id)
	}
	return apperr.Classify(apperr.TransportFailure, op, s.backend.DeleteMember(ctx, teamID, id))
}

// AddLineup creates the lineup for l's service date. A lineup already on
// that date is overwritten, so re-submitting is safe.
// POST: returned lineup carries the id derived from its date
func (s *Store) AddLineup(ctx context.Context, l lineup.Lineup) (out lineup.Lineup, err error) {
	const op = "add_lineup"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return lineup.Lineup{}, err
	}
	c, err := s.prepareLineup(op, l, true)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if err := s.backend.SaveLineup(ctx, teamID, c); err != nil {
		return lineup.Lineup{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	return c, nil
}

// AddLineups creates many lineups in one bulk write. Every lineup is
// validated before anything is written.
// POST: on a failed write the error is a *BulkError naming the applied prefix
func (s *Store) AddLineups(ctx context.Context, ls []lineup.Lineup) (out []lineup.Lineup, err error) {
	const op = "add_lineups"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return nil, err
	}
	out = make([]lineup.Lineup, 0, len(ls))
	for i, l := range ls {
		c, err := s.prepareLineup(op, l, true)
		if err != nil {
			return nil, fmt.Errorf("lineup %d: %w", i, err)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return out, nil
	}
	n, err := s.backend.SaveLineups(ctx, teamID, out)
	if err != nil {
		return nil, &BulkError{Applied: n, Err: apperr.Classify(apperr.TransportFailure, op, err)}
	}
	return out, nil
}

// UpdateLineup replaces an existing lineup document, keeping its id.
// PRE: l.ID names a lineup in the current view
func (s *Store) UpdateLineup(ctx context.Context, l lineup.Lineup) (out lineup.Lineup, err error) {
	const op = "update_lineup"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if _, ok := s.View().Lineup(l.ID); !ok {
		return lineup.Lineup{}, apperr.Errorf(apperr.NotFound, op, "lineup %q", l.ID)
	}
	c, err := s.prepareLineup(op, l, false)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if err := s.backend.SaveLineup(ctx, teamID, c); err != nil {
		return lineup.Lineup{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	return c, nil
}

// RemoveLineup deletes a lineup document.
func (s *Store) RemoveLineup(ctx context.Context, id string) (err error) {
	const op = "remove_lineup"
	defer func() { s.observe(op, err) }()

	teamID, err := s.authorize(op)
	if err != nil {
		return err
	}
	if _, ok := s.View().Lineup(id); !ok {
		return apperr.Errorf(apperr.NotFound, op, "lineup %q", id)
	}
	return apperr.Classify(apperr.TransportFailure, op, s.backend.DeleteLineup(ctx, teamID, id))
}

// prepareLineup returns a normalized, validated copy of l. New lineups get
// their id from the service date.
func (s *Store) prepareLineup(op string, l lineup.Lineup, create bool) (lineup.Lineup, error) {
	c := l.Clone()
	c.Normalize()
	if create {
		c.ID = ""
		c.AssignID(s.newID())
	}
	if err := c.Validate(); err != nil {
		return lineup.Lineup{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	return c, nil
}

func cleanMember(m member.Member) member.Member {
	m.Name = strings.TrimSpace(m.Name)
	m.Nickname = strings.TrimSpace(m.Nickname)
	roles := make([]string, 0, len(m.Roles))
	for _, r := range m.Roles {
		roles = append(roles, strings.TrimSpace(r))
	}
	m.Roles = roles
	return m
}

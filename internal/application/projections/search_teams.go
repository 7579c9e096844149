package projections

import (
	"context"
	"strings"

	teamStore "roster/internal/adapters/storage/team"
	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	"roster/internal/domain/team"
)

// PublicTeamSearcher matches public team names.
type PublicTeamSearcher interface {
	SearchPublicTeams(ctx context.Context, term string, limit int) ([]team.Team, error)
}

// SearchPublicTeamsQuery carries query parameters.
type SearchPublicTeamsQuery struct {
	Term string
}

// SearchPublicTeamsDeps holds dependencies for SearchPublicTeams.
type SearchPublicTeamsDeps struct {
	Teams PublicTeamSearcher
}

// QuerySearchPublicTeams lists public teams whose name contains the term,
// ignoring case.
// POST: a blank term returns no teams and does not touch the store
// INVARIANT: private teams and invite codes never appear
func QuerySearchPublicTeams(ctx context.Context, query SearchPublicTeamsQuery, deps SearchPublicTeamsDeps) ([]TeamSummary, error) {
	term := strings.TrimSpace(query.Term)
	if term == "" {
		return []TeamSummary{}, nil
	}
	teams, err := deps.Teams.SearchPublicTeams(ctx, term, teamStore.DefaultSearchLimit)
	if err != nil {
		return nil, apperr.Classify(apperr.TransportFailure, "search_teams", err)
	}
	out := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		if !t.IsPublic() {
			continue
		}
		out = append(out, summarize(t, access.Capabilities{CanRead: true}))
	}
	return out, nil
}

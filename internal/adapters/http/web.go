package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roster/internal/adapters/http/middleware"
	"roster/internal/adapters/lineupimage"
	"roster/internal/adapters/livestore"
	"roster/internal/adapters/metrics"
	outboxStore "roster/internal/adapters/storage/outbox"
	"roster/internal/application/orchestrators"
	"roster/internal/application/syncstore"
)

// Deps holds everything the router serves from.
type Deps struct {
	Backend   *livestore.Backend
	Outbox    outboxStore.Store
	Processor *orchestrators.OutboxProcessor
	Renderer  *lineupimage.Renderer
	Tokens    *middleware.Tokens
	Limiter   *middleware.RateLimiter
	Metrics   *metrics.Metrics // optional

	CSRFKey        []byte
	TrustedOrigins []string
	SecureCookies  bool
	AdminUIDs      []string
	PublicBaseURL  string

	Now   func() time.Time // defaults to time.Now
	NewID func() string    // defaults to uuid.NewString
}

// attachTimeout bounds how long a request waits for the caller's roster
// to load.
const attachTimeout = 10 * time.Second

type server struct {
	deps     Deps
	observer syncstore.MutationObserver
	upgrader websocket.Upgrader
}

// NewRouter builds the HTTP handler.
// PRE: Backend, Outbox, Processor, Renderer, Tokens and Limiter are set
func NewRouter(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	s := &server{deps: deps}
	if deps.Metrics != nil {
		s.observer = deps.Metrics
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	var (
		requests   middleware.RequestObserver
		onReject   func()
		onAuthFail func(string)
	)
	if deps.Metrics != nil {
		requests = deps.Metrics
		onReject = deps.Metrics.IncRateLimitRejection
		onAuthFail = deps.Metrics.IncAuthFailure
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timing(requests))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Identity(deps.Tokens, onAuthFail))

	r.Get("/healthz", handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Public reads. Private teams answer NotFound to outsiders.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter, onReject))
		r.Get("/t/{code}", s.handleInviteLink)
		r.Get("/api/teams/search", s.handleSearchTeams)
		r.Get("/api/teams/resolve/{code}", s.handleResolveTeam)
		r.Get("/api/teams/{teamID}/schedule/{month}", s.handleMonthSchedule)
		r.Get("/api/teams/{teamID}/year/{year}", s.handleYearOverview)
		r.Get("/api/teams/{teamID}/songs", s.handleSongHistory)
		r.Get("/api/teams/{teamID}/lineups/{lineupID}/image.png", s.handleLineupImage)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity)
		r.Use(middleware.CSRF(deps.CSRFKey, deps.TrustedOrigins, deps.SecureCookies))

		r.Get("/api/csrf", handleCSRFToken)
		r.Get("/api/me", s.handleMe)
		r.Post("/api/me/leave", s.handleLeaveTeam)
		r.Delete("/api/me/history/{teamID}", s.handleForgetTeam)

		r.Post("/api/teams", s.handleCreateTeam)
		r.Post("/api/teams/join", s.handleJoinTeam)
		r.Post("/api/teams/{teamID}/follow", s.handleFollowTeam)
		r.Post("/api/teams/{teamID}/switch", s.handleSwitchTeam)
		r.Patch("/api/teams/{teamID}", s.handleUpdateTeamSettings)
		r.Put("/api/teams/{teamID}/co-admins/{uid}", s.handleGrantCoAdmin)
		r.Delete("/api/teams/{teamID}/co-admins/{uid}", s.handleRevokeCoAdmin)

		r.Route("/api/roster", func(r chi.Router) {
			r.Post("/members", s.handleAddMember)
			r.Put("/members/{memberID}", s.handleUpdateMember)
			r.Delete("/members/{memberID}", s.handleRemoveMember)
			r.Post("/lineups", s.handleAddLineup)
			r.Put("/lineups/{lineupID}", s.handleUpdateLineup)
			r.Delete("/lineups/{lineupID}", s.handleRemoveLineup)
			r.Post("/copy-month", s.handleCopyMonth)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireUIDs(deps.AdminUIDs))
			r.Get("/outbox", s.handleListOutbox)
			r.Post("/outbox/{entryID}/retry", s.handleRetryOutbox)
			r.Post("/outbox/{entryID}/abandon", s.handleAbandonOutbox)
			if deps.Metrics != nil {
				r.Method(http.MethodGet, "/metrics", deps.Metrics.SummaryHandler())
			}
		})
	})

	// GET upgrades are not CSRF-checked; the origin check lives in the
	// upgrader.
	r.With(middleware.RequireIdentity).Get("/api/live", s.handleLive)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// newSession returns an unattached SyncStore for one caller.
func (s *server) newSession() *syncstore.Store {
	return syncstore.New(s.deps.Backend, syncstore.Options{NewID: s.deps.NewID, Observer: s.observer})
}

package team

import (
	"context"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/redirect"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is where an authenticated user stands with respect to teams.
type State int

const (
	NeedsTeamCreation State = iota
	NeedsTeamSelection
	Ready
)

func (s State) String() string {
	switch s {
	case NeedsTeamCreation:
		return "needs_team_creation"
	case NeedsTeamSelection:
		return "needs_team_selection"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

const (
	CreatePath = "/teams/create"
	SelectPath = "/teams"
	HomePath   = "/"
)

// RedirectTarget is the outcome of team resolution.
type RedirectTarget struct {
	State    State
	Location string
}

type Resolver struct {
	store Store
	log   *zap.Logger
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// ResolveNextRoute bootstraps the user record and decides the next screen.
//
// A failed bootstrap is returned as *auth.BootstrapError. Membership or
// profile read failures are logged and resolve to NeedsTeamCreation.
// returnTo is sanitized and only used in the Ready state.
func (r *Resolver) ResolveNextRoute(
	ctx context.Context,
	identity auth.Identity,
	returnTo string,
) (RedirectTarget, error) {

	if err := r.Bootstrap(ctx, identity); err != nil {
		return RedirectTarget{}, err
	}

	count, profile, err := r.lookup(ctx, identity.ID)
	if err != nil {
		// TODO: confirm with product whether a transient lookup failure
		// should land on an error page instead of team creation.
		r.log.Error("team membership lookup failed",
			zap.String("user_id", identity.ID),
			zap.Error(err),
		)
		return target(NeedsTeamCreation, returnTo), nil
	}

	switch {
	case count == 0:
		return target(NeedsTeamCreation, returnTo), nil
	case profile == nil || profile.CurrentTeamID == nil:
		return target(NeedsTeamSelection, returnTo), nil
	default:
		return target(Ready, returnTo), nil
	}
}

// Bootstrap makes sure the local user record exists. It is idempotent.
func (r *Resolver) Bootstrap(ctx context.Context, identity auth.Identity) error {
	if err := r.store.UpsertUserBasic(ctx, identity.ID, identity.Email); err != nil {
		r.log.Error("user bootstrap failed",
			zap.String("user_id", identity.ID),
			zap.Error(err),
		)
		return &auth.BootstrapError{UserID: identity.ID, Err: err}
	}
	return nil
}

// lookup reads the membership count and profile concurrently.
func (r *Resolver) lookup(ctx context.Context, userID string) (int, *UserRecord, error) {
	var (
		count   int
		profile *UserRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.store.CountTeamMemberships(gctx, userID)
		count = n
		return err
	})
	g.Go(func() error {
		p, err := r.store.GetUserProfile(gctx, userID)
		profile = p
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, nil, &auth.MembershipLookupError{UserID: userID, Err: err}
	}
	return count, profile, nil
}

func target(state State, returnTo string) RedirectTarget {
	switch state {
	case NeedsTeamSelection:
		return RedirectTarget{State: state, Location: SelectPath}
	case Ready:
		return RedirectTarget{State: state, Location: redirect.Sanitize(returnTo)}
	default:
		return RedirectTarget{State: NeedsTeamCreation, Location: CreatePath}
	}
}

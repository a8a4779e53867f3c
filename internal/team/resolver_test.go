package team

import (
	"context"
	"errors"
	"sync"
	"testing"

	"atelier-auth/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStore struct {
	mu         sync.Mutex
	users      map[string]*UserRecord
	members    map[string][]string
	upsertErr  error
	countErr   error
	profileErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*UserRecord{}, members: map[string][]string{}}
}

func (f *fakeStore) UpsertUserBasic(_ context.Context, id, email string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		f.users[id] = &UserRecord{ID: id, Email: email}
	}
	return nil
}

func (f *fakeStore) CountTeamMemberships(_ context.Context, userID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[userID]), nil
}

func (f *fakeStore) GetUserProfile(_ context.Context, userID string) (*UserRecord, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) IsMember(_ context.Context, userID, teamID string) (bool, error) {
	for _, id := range f.members[userID] {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetCurrentTeam(_ context.Context, userID, teamID string) error {
	f.users[userID].CurrentTeamID = &teamID
	return nil
}

func (f *fakeStore) ListTeams(context.Context, string) ([]Team, error) { return nil, nil }

var ada = auth.Identity{ID: "user-1", Email: "ada@atelier.test", Provider: "google"}

func strPtr(s string) *string { return &s }

func TestResolveNextRoute(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		teams     []string
		current   *string
		returnTo  string
		wantState State
		wantLoc   string
	}{
		{"no teams", nil, nil, "", NeedsTeamCreation, CreatePath},
		{"no teams ignores current team", nil, strPtr("team-1"), "/orders", NeedsTeamCreation, CreatePath},
		{"teams without selection", []string{"team-1"}, nil, "/orders", NeedsTeamSelection, SelectPath},
		{"ready goes home", []string{"team-1"}, strPtr("team-1"), "", Ready, HomePath},
		{"ready honours return path", []string{"team-1", "team-2"}, strPtr("team-2"), "/orders?open=1", Ready, "/orders?open=1"},
		{"ready sanitizes return path", []string{"team-1"}, strPtr("team-1"), "https://evil.example/x", Ready, "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.members[ada.ID] = tt.teams
			if tt.current != nil {
				store.users[ada.ID] = &UserRecord{ID: ada.ID, Email: ada.Email, CurrentTeamID: tt.current}
			}

			got, err := NewResolver(store, zap.NewNop()).ResolveNextRoute(ctx, ada, tt.returnTo)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantLoc, got.Location)
			assert.Contains(t, store.users, ada.ID)
		})
	}
}

func TestResolveNextRouteBootstrapsOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members[ada.ID] = []string{"team-1"}
	r := NewResolver(store, zap.NewNop())

	_, err := r.ResolveNextRoute(ctx, ada, "")
	require.NoError(t, err)
	require.NoError(t, store.SetCurrentTeam(ctx, ada.ID, "team-1"))

	got, err := r.ResolveNextRoute(ctx, ada, "")
	require.NoError(t, err)
	assert.Equal(t, Ready, got.State)
	assert.Len(t, store.users, 1)
	assert.Equal(t, "team-1", *store.users[ada.ID].CurrentTeamID)
}

func TestResolveNextRouteFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("bootstrap failure", func(t *testing.T) {
		store := newFakeStore()
		store.upsertErr = errors.New("permission denied for table users")

		_, err := NewResolver(store, zap.NewNop()).ResolveNextRoute(ctx, ada, "")
		var be *auth.BootstrapError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, ada.ID, be.UserID)
	})

	for name, mutate := range map[string]func(*fakeStore){
		"count failure":   func(s *fakeStore) { s.countErr = errors.New("timeout") },
		"profile failure": func(s *fakeStore) { s.profileErr = errors.New("timeout") },
	} {
		t.Run(name+" falls back to team creation", func(t *testing.T) {
			store := newFakeStore()
			store.members[ada.ID] = []string{"team-1"}
			mutate(store)

			core, logs := observer.New(zapcore.ErrorLevel)
			got, err := NewResolver(store, zap.New(core)).ResolveNextRoute(ctx, ada, "/orders")
			require.NoError(t, err)
			assert.Equal(t, NeedsTeamCreation, got.State)
			assert.Equal(t, CreatePath, got.Location)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, ada.ID, logs.All()[0].ContextMap()["user_id"])
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "needs_team_creation", NeedsTeamCreation.String())
	assert.Equal(t, "needs_team_selection", NeedsTeamSelection.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(9).String())
}

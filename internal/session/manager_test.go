package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/backend/backendtest"
	"safeguard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T) (*Manager, *backendtest.Fake) {
	t.Helper()
	fake := backendtest.New()
	m := NewManager(fake, zap.NewNop())
	t.Cleanup(m.Close)
	return m, fake
}

func TestSignInResolvesMatchingProfile(t *testing.T) {
	m, fake := newManager(t)
	seeded := fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	ctx := context.Background()
	m.Start(ctx)
	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.Loading())

	user, err := m.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	m.GetCurrentSession(ctx)
	require.NoError(t, m.Err())
	current := m.Current()
	require.NotNil(t, current)
	assert.Equal(t, seeded.ID, current.ID)
	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsAdmin())
}

func TestSignInBadCredentials(t *testing.T) {
	m, fake := newManager(t)
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)

	_, err := m.SignIn(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrAuth))
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))
	assert.Equal(t, err, m.Err())
	assert.Nil(t, m.Current())
}

func TestSignInWithoutProfileRow(t *testing.T) {
	m, fake := newManager(t)
	ctx := context.Background()
	_, err := fake.SignUp(ctx, "orphan@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, fake.SignOut(ctx))

	_, err = m.SignIn(ctx, "orphan@example.com", "secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrProfileFetch))
	assert.Nil(t, m.Current())
}

func TestSignUpCreatesUserProfile(t *testing.T) {
	m, _ := newManager(t)
	m.Start(context.Background())

	user, err := m.SignUp(context.Background(), "a@x.com", "secret", "Ana")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	require.NotNil(t, user.FullName)
	assert.Equal(t, "Ana", *user.FullName)
	assert.Equal(t, user.ID, m.Current().ID)
	assert.NoError(t, m.Err())
}

func TestSignUpDuplicateIsAuthError(t *testing.T) {
	m, fake := newManager(t)
	fake.SeedUser("a@x.com", "secret", "Ana", models.RoleUser)

	_, err := m.SignUp(context.Background(), "a@x.com", "other", "Imposter")
	assert.True(t, errors.Is(err, apperr.ErrAuth))
	assert.True(t, errors.Is(err, backend.ErrConflict))
}

func TestSignUpProfileInsertFailureLeavesIdentity(t *testing.T) {
	m, fake := newManager(t)
	fake.Fail("InsertProfile", errors.New("insert failed"))

	_, err := m.SignUp(context.Background(), "a@x.com", "secret", "Ana")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrProfileInsert))
	assert.Nil(t, m.Current())

	identity, err := fake.CurrentIdentity(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "a@x.com", identity.Email)
}

func TestUpdateProfileRequiresUser(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.UpdateProfile(context.Background(), models.ProfilePatch{})
	assert.True(t, errors.Is(err, apperr.ErrNotAuthenticated))
}

func TestUpdateProfileChangesOnlyPatchedFields(t *testing.T) {
	m, fake := newManager(t)
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	ctx := context.Background()
	_, err := m.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	phone := "+40 700 000 000"
	contacts := models.EmergencyContacts{{Name: "Maria", Email: "maria@example.com"}}
	before, err := m.UpdateProfile(ctx, models.ProfilePatch{PhoneNumber: &phone, EmergencyContacts: &contacts})
	require.NoError(t, err)

	name := "Ana Pop"
	after, err := m.UpdateProfile(ctx, models.ProfilePatch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Pop", *after.FullName)

	read, err := fake.GetProfile(ctx, after.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Pop", *read.FullName)
	assert.Equal(t, before.PhoneNumber, read.PhoneNumber)
	assert.Equal(t, before.EmergencyContacts, read.EmergencyContacts)
	assert.Equal(t, before.Role, read.Role)
	assert.Equal(t, before.Email, read.Email)
	assert.Equal(t, read.FullName, m.Current().FullName)
}

func TestSignOutFailureKeepsUser(t *testing.T) {
	m, fake := newManager(t)
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	ctx := context.Background()
	_, err := m.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	fake.Fail("SignOut", errors.New("network down"))
	err = m.SignOut(ctx)
	assert.True(t, errors.Is(err, apperr.ErrSignOut))
	assert.True(t, m.IsAuthenticated())

	fake.Fail("SignOut", nil)
	require.NoError(t, m.SignOut(ctx))
	assert.False(t, m.IsAuthenticated())
}

func TestObserversFollowSessionChanges(t *testing.T) {
	m, fake := newManager(t)
	seeded := fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleAdmin)
	ctx := context.Background()
	m.Start(ctx)

	var seen []*models.User
	unsubscribe := m.Subscribe(func(u *models.User) { seen = append(seen, u) })
	defer unsubscribe()

	// A sign-in made by another client of the same backend.
	session, err := fake.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	require.NotNil(t, seen[len(seen)-1])
	assert.Equal(t, seeded.ID, seen[len(seen)-1].ID)
	assert.True(t, m.IsAdmin())

	fake.Emit(models.EventSignedOut, nil)
	assert.Nil(t, seen[len(seen)-1])
	assert.False(t, m.IsAuthenticated())

	fake.Emit(models.EventTokenRefreshed, session)
	assert.Equal(t, seeded.ID, m.Current().ID)
}

func TestRoleChangeReachesSessionAndBackendTogether(t *testing.T) {
	m, fake := newManager(t)
	seeded := fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleAdmin)
	ctx := context.Background()
	m.Start(ctx)
	_, err := m.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	require.True(t, m.IsAdmin())

	_, err = fake.SetUserRole(ctx, seeded.ID, models.RoleUser)
	require.NoError(t, err)
	assert.False(t, m.IsAdmin())
	_, err = fake.ListUsers(ctx)
	assert.True(t, errors.Is(err, backend.ErrForbidden))

	fake.SetRole(seeded.ID, models.RoleAdmin)
	assert.True(t, m.IsAdmin())
	_, err = fake.ListUsers(ctx)
	assert.NoError(t, err)
}

func TestStaleResolutionDoesNotOverrideSignOut(t *testing.T) {
	m, fake := newManager(t)
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	ctx := context.Background()
	_, err := fake.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake.GetProfileHook = func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()
	<-entered

	fake.Emit(models.EventSignedOut, nil)
	close(release)
	<-done

	assert.Nil(t, m.Current())
	assert.False(t, m.Loading())
}

func TestStartRecordsIdentityFailure(t *testing.T) {
	m, fake := newManager(t)
	fake.Fail("CurrentIdentity", errors.New("unreachable"))

	m.Start(context.Background())
	assert.True(t, errors.Is(m.Err(), apperr.ErrAuth))
	assert.Nil(t, m.Current())
}

func TestCloseReleasesSubscription(t *testing.T) {
	m, fake := newManager(t)
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	ctx := context.Background()
	m.Start(ctx)
	m.Close()

	_, err := fake.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, m.Current())
}

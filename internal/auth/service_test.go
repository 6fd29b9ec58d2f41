package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/selara/backend-store/internal/domain"
)

type memAuthStore struct {
	users    map[string]domain.User
	sessions map[string]session
}

type session struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func newMemAuthStore() *memAuthStore {
	return &memAuthStore{users: map[string]domain.User{}, sessions: map[string]session{}}
}

func (m *memAuthStore) Create(_ context.Context, name, email, passwordHash string, roles []string) (domain.User, error) {
	u := domain.User{ID: uuid.New(), Name: name, Email: email, PasswordHash: passwordHash, Roles: roles}
	m.users[email] = u
	return u, nil
}

func (m *memAuthStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memAuthStore) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memAuthStore) CreateSession(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.sessions[tokenHash] = session{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memAuthStore) GetSessionUser(_ context.Context, tokenHash string) (uuid.UUID, error) {
	s, ok := m.sessions[tokenHash]
	if !ok || time.Now().After(s.expiresAt) {
		return uuid.Nil, domain.ErrNotFound
	}
	return s.userID, nil
}

func (m *memAuthStore) RotateSession(_ context.Context, oldHash, newHash string, expiresAt time.Time) error {
	s, ok := m.sessions[oldHash]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, oldHash)
	m.sessions[newHash] = session{userID: s.userID, expiresAt: expiresAt}
	return nil
}

func (m *memAuthStore) DeleteSession(_ context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

func (m *memAuthStore) DeleteSessionsByUser(_ context.Context, userID uuid.UUID) error {
	for hash, s := range m.sessions {
		if s.userID == userID {
			delete(m.sessions, hash)
		}
	}
	return nil
}

func newAuthService(t *testing.T) (*Service, *memAuthStore) {
	t.Helper()
	store := newMemAuthStore()
	svc, err := NewService(Config{Store: store, Secret: "test-secret-please-rotate"})
	require.NoError(t, err)
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register(context.Background(), "Ana", "ana@example.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", user.Email)
	require.Contains(t, user.Roles, "customer")

	result, err := svc.Login(context.Background(), "Ana@Example.com", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "supersecret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ana@example.com", "wrong-password")
	require.Error(t, err)
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "supersecret")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "ana@example.com", "supersecret")
	require.NoError(t, err)

	subject, roles, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, subject)
	require.Contains(t, roles, "customer")
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "supersecret")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	result, err := svc.Login(context.Background(), "ana@example.com", "supersecret")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, _, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, store := newAuthService(t)
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "supersecret")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "ana@example.com", "supersecret")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is no longer usable.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
	require.Len(t, store.sessions, 1)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, store := newAuthService(t)
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "supersecret")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "ana@example.com", "supersecret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
	require.Empty(t, store.sessions)
}

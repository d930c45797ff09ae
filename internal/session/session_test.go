package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoice-desk/internal/models"
	"invoice-desk/internal/redisclient"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	password string
}

func (a *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if req.Password != a.password {
		return nil, errors.New("Invalid credentials")
	}
	return &models.User{ShopName: req.ShopName}, nil
}

func setupManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := NewRedisStore(redisclient.NewFromRedis(rdb))
	tokens := NewTokenIssuer("test-secret", time.Hour)
	return NewManager(&fakeAuth{password: "secret"}, store, tokens, time.Hour), mr
}

func TestLoginRestoreLogout(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	rec, token, err := m.Login(ctx, models.LoginRequest{ShopName: "Corner Store", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, token)
	assert.True(t, mr.Exists(sessionKey(rec.ID)))

	restored, err := m.Restore(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, restored.ID)
	assert.Equal(t, "Corner Store", restored.User.ShopName)

	require.NoError(t, m.Logout(ctx, rec.ID))
	_, err = m.Restore(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_BadCredentialsOpensNothing(t *testing.T) {
	m, mr := setupManager(t)

	_, _, err := m.Login(context.Background(), models.LoginRequest{ShopName: "Corner Store", Password: "nope"})
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestRestore_ExpiredSession(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	_, token, err := m.Login(ctx, models.LoginRequest{ShopName: "A", Password: "secret"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = m.Restore(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestore_SlidesTTL(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	rec, token, err := m.Login(ctx, models.LoginRequest{ShopName: "A", Password: "secret"})
	require.NoError(t, err)

	mr.FastForward(40 * time.Minute)
	_, err = m.Restore(ctx, token)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, mr.TTL(sessionKey(rec.ID)))
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Minute)

	token, err := issuer.Issue("sess-1")
	require.NoError(t, err)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)

	_, err = NewTokenIssuer("secret-b", time.Minute).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

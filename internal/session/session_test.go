package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/recruit-inbox/internal/credential"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newProvider(t *testing.T) *Keyring {
	t.Helper()
	return NewKeyring(credential.NewStore(keyring.NewArrayKeyring(nil)), "acct")
}

func TestNoCookieIsInactive(t *testing.T) {
	p := newProvider(t)

	assert.False(t, p.Active())
	_, err := p.Cookie()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestOpaqueCookieIsActive(t *testing.T) {
	p := newProvider(t)
	require.NoError(t, p.Save("  s%3Aabc.def  "))

	assert.True(t, p.Active())
	cookie, err := p.Cookie()
	require.NoError(t, err)
	assert.Equal(t, "s%3Aabc.def", cookie)
}

func TestJWTExpiry(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	p := newProvider(t)
	p.now = func() time.Time { return now }

	require.NoError(t, p.Save(signed(t, jwt.MapClaims{
		"sub": "42",
		"exp": now.Add(time.Hour).Unix(),
	})))
	assert.True(t, p.Active())

	require.NoError(t, p.Save(signed(t, jwt.MapClaims{
		"sub": "42",
		"exp": now.Add(-time.Minute).Unix(),
	})))
	assert.False(t, p.Active())

	require.NoError(t, p.Save(signed(t, jwt.MapClaims{"sub": "42"})))
	assert.True(t, p.Active(), "a JWT without exp is treated as opaque")
}

func TestExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := Expiry(signed(t, jwt.MapClaims{"exp": exp.Unix()}))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = Expiry("not-a-jwt")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	p := newProvider(t)
	require.NoError(t, p.Save("cookie"))
	require.NoError(t, p.Clear())
	assert.False(t, p.Active())
}

func TestSaveRejectsEmpty(t *testing.T) {
	p := newProvider(t)
	assert.Error(t, p.Save("   "))
}

type flagProvider struct{ v atomic.Bool }

func (f *flagProvider) Active() bool { return f.v.Load() }

func TestWatch(t *testing.T) {
	f := &flagProvider{}
	f.v.Store(true)

	var seenTrue, seenFalse atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Watch(ctx, f, time.Millisecond, func(active bool) {
			if active {
				seenTrue.Add(1)
			} else {
				seenFalse.Add(1)
			}
		})
	}()

	require.Eventually(t, func() bool { return seenTrue.Load() > 0 }, time.Second, time.Millisecond)
	f.v.Store(false)
	require.Eventually(t, func() bool { return seenFalse.Load() > 0 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

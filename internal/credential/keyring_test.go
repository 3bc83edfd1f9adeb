package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))
	key := SessionKey("acct-1")

	_, err := s.Get(key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(key, "cookie"))
	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "cookie", got)

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(key), "deleting twice is fine")
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session-abc", SessionKey("abc"))
}

package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)

	store.Set("tok_abc")
	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", token)

	store.Clear()
	_, err = store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestEnvStore(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv("TASKDECK_TOKEN", "")
		_, err := EnvStore{}.Token()
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("set", func(t *testing.T) {
		t.Setenv("TASKDECK_TOKEN", "tok_env")
		token, err := EnvStore{}.Token()
		require.NoError(t, err)
		assert.Equal(t, "tok_env", token)
	})
}

func TestStatic(t *testing.T) {
	token, err := Static("tok_fixed").Token()
	require.NoError(t, err)
	assert.Equal(t, "tok_fixed", token)

	_, err = Static("").Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestFallback(t *testing.T) {
	t.Run("first match wins", func(t *testing.T) {
		memory := NewMemoryStore()
		memory.Set("tok_memory")

		token, err := Fallback(memory, Static("tok_static")).Token()
		require.NoError(t, err)
		assert.Equal(t, "tok_memory", token)
	})

	t.Run("skips empty stores", func(t *testing.T) {
		token, err := Fallback(NewMemoryStore(), Static("tok_static")).Token()
		require.NoError(t, err)
		assert.Equal(t, "tok_static", token)
	})

	t.Run("all empty", func(t *testing.T) {
		_, err := Fallback(NewMemoryStore(), Static("")).Token()
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("no stores", func(t *testing.T) {
		_, err := Fallback().Token()
		assert.ErrorIs(t, err, ErrNoCredential)
	})
}

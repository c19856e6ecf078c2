package profile

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	p := Profile{UserID: "u1", Restrictions: []string{"halal", "Vegetarian"}, Cultures: []string{"Indian", "Chinese"}}

	r, c := Merge(p, []string{"vegetarian", "nut-free"}, []string{"Chinese"})
	assert.Equal(t, []string{"vegetarian", "nut-free", "halal"}, r)
	assert.Equal(t, []string{"Chinese", "Indian"}, c)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(Profile{UserID: "u1", Restrictions: []string{"vegan"}})
	ctx := context.Background()

	p, ok, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"vegan"}, p.Restrictions)

	_, ok, err = s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, mr.Set("profile:u1", `{"restrictions":["kosher"],"cultures":["Jewish"]}`))

	p, ok, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, []string{"kosher"}, p.Restrictions)

	_, ok, err = s.Load(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("profile:bad", `not json`))
	_, _, err = s.Load(ctx, "bad")
	assert.Error(t, err)
}

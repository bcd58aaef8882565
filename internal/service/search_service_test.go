package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_MatchesAcrossEntities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gopher := env.actor(t, "gopherfan")
	env.actor(t, "rustacean")

	_, err := env.content.CreatePost(ctx, gopher, PostInput{Title: "Why GOPHERS dig", Content: "tunnels"})
	require.NoError(t, err)
	_, err = env.content.CreatePost(ctx, gopher, PostInput{Title: "Lunch", Content: "nothing about gophers"})
	require.NoError(t, err)
	_, err = env.content.CreatePost(ctx, gopher, PostInput{Title: "Unrelated", Content: "cats"})
	require.NoError(t, err)
	_, err = env.rooms.CreateRoom(ctx, "Gopher lounge")
	require.NoError(t, err)
	_, err = env.rooms.CreateRoom(ctx, "Crab shack")
	require.NoError(t, err)

	res, err := env.search.Search(ctx, "  gopher ")
	require.NoError(t, err)
	assert.Equal(t, "gopher", res.Query)
	assert.Len(t, res.Posts, 2)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "gopherfan", res.Users[0].Username)
	require.Len(t, res.ChatRooms, 1)
	assert.Equal(t, "Gopher lounge", res.ChatRooms[0].Name)
}

func TestSearchService_EmptyQueryAndWildcards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.actor(t, "alice")

	res, err := env.search.Search(ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, res.Posts)
	assert.Empty(t, res.Users)

	res, err = env.search.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, res.Users)
}

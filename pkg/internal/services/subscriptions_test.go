package services

import (
	"testing"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowCreatesSingleEdge(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")
	env.mustAccount(t, "bob")

	subscription, err := env.subscriptions.Follow(alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, subscription.FollowerID)

	_, err = env.subscriptions.Follow(alice, "bob")
	assert.ErrorIs(t, err, ErrAlreadyFollowing)

	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFollowUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")

	_, err := env.subscriptions.Follow(alice, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowSelf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")

	_, err := env.subscriptions.Follow(alice, "alice")
	assert.ErrorIs(t, err, ErrSelfFollow)

	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDuplicateEdgeDiesAtConstraint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")
	bob := env.mustAccount(t, "bob")

	// bypass the service-level existence check, as a racing request would
	require.NoError(t, env.db.Create(&models.Subscription{
		FollowerID: alice.ID, FollowedID: bob.ID,
	}).Error)
	err := env.db.Create(&models.Subscription{
		FollowerID: alice.ID, FollowedID: bob.ID,
	}).Error
	require.Error(t, err)
}

func TestUnfollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")
	bob := env.mustAccount(t, "bob")

	require.NoError(t, env.subscriptions.Unfollow(alice, bob))

	_, err := env.subscriptions.Follow(alice, "bob")
	require.NoError(t, err)
	require.NoError(t, env.subscriptions.Unfollow(alice, bob))
	require.NoError(t, env.subscriptions.Unfollow(alice, bob))

	following, err := env.subscriptions.ListFollowing(alice)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestListFollowingKeepsInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")
	env.mustAccount(t, "bob")
	env.mustAccount(t, "carol")
	env.mustAccount(t, "dave")

	for _, name := range []string{"carol", "bob", "dave"} {
		_, err := env.subscriptions.Follow(alice, name)
		require.NoError(t, err)
	}

	following, err := env.subscriptions.ListFollowing(alice)
	require.NoError(t, err)
	require.Len(t, following, 3)
	assert.Equal(t, "carol", following[0].Followed.Name)
	assert.Equal(t, "bob", following[1].Followed.Name)
	assert.Equal(t, "dave", following[2].Followed.Name)
}

func TestFollowedSetCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustAccount(t, "alice")
	bob := env.mustAccount(t, "bob")
	env.mustAccount(t, "carol")

	ids, err := env.subscriptions.ListFollowedIDs(alice)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = env.subscriptions.Follow(alice, "bob")
	require.NoError(t, err)

	ids, err = env.subscriptions.ListFollowedIDs(alice)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, ids)

	require.NoError(t, env.subscriptions.Unfollow(alice, bob))

	ids, err = env.subscriptions.ListFollowedIDs(alice)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

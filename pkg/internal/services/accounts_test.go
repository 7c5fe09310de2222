package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAccountSyncsFromGateway(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.accounts.UpsertAccount("alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Name)

	// second sight updates the nick, keeps the row
	again, err := env.accounts.UpsertAccount("alice", "Alice L.")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Alice L.", again.Nick)

	// an empty nick from the gateway never wipes the stored one
	again, err = env.accounts.UpsertAccount("alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", again.Nick)
}

func TestGetAccountWithName(t *testing.T) {
	env := newTestEnv(t)
	env.mustAccount(t, "bob")

	account, err := env.accounts.GetAccountWithName("bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", account.Name)

	_, err = env.accounts.GetAccountWithName("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunUserStoreContract runs a suite of tests to verify that a UserStore implementation
// adheres to the defined interface contract.
func RunUserStoreContract(t *testing.T, store UserStore) {
	ctx := context.Background()
	addr := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		user := domain.NewUser(addr)
		user.SetStateName("state_age")
		user.SetAnswer("state_terms", "yes")
		user.SetAnswer("state_first_name", "Jane")
		user.Metadata["page_id"] = "111"
		sid := int64(42)
		user.SessionID = &sid

		err := store.Save(ctx, user)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, addr)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, addr, loaded.Addr)
		assert.Equal(t, "state_age", loaded.StateName())
		require.NotNil(t, loaded.SessionID)
		assert.Equal(t, int64(42), *loaded.SessionID)
		assert.Equal(t, "111", loaded.Metadata["page_id"])

		var keys []string
		for pair := loaded.Answers.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		assert.Equal(t, []string{"state_terms", "state_first_name"}, keys, "answer order must survive persistence")
	})

	t.Run("Load returns an isolated copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, addr)
		require.NoError(t, err)
		loaded.SetAnswer("state_terms", "no")

		again, err := store.Load(ctx, addr)
		require.NoError(t, err)
		v, _ := again.Answer("state_terms")
		assert.Equal(t, "yes", v)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+addr)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewUser(addr)))

		err := store.Delete(ctx, addr)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, addr)
		assert.ErrorIs(t, err, domain.ErrUserNotFound, "Load after Delete should return ErrUserNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := fmt.Sprintf("%s-1", addr)
		id2 := fmt.Sprintf("%s-2", addr)
		_ = store.Save(ctx, domain.NewUser(id1))
		_ = store.Save(ctx, domain.NewUser(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}

package services

import (
	"context"
	"errors"
	"testing"

	"roundsettle/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accountMap is an in-memory AccountReader that counts lookups
type accountMap struct {
	accounts map[int64]*entities.Account
	lookups  int
	err      error
}

func (m *accountMap) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	return m.accounts[id], nil
}

func newAccountMap(accounts ...*entities.Account) *accountMap {
	m := &accountMap{accounts: make(map[int64]*entities.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func uplineIDs(upline []*entities.Account) []int64 {
	ids := make([]int64, len(upline))
	for i, a := range upline {
		ids[i] = a.ID
	}
	return ids
}

// standardHierarchy builds player 1 -> agent 2 -> master 3 -> super master 4 -> admin 5
func standardHierarchy() *accountMap {
	return newAccountMap(
		createTestAccount(1, entities.RolePlayer, int64Ptr(2)),
		createTestAccount(2, entities.RoleAgent, int64Ptr(3)),
		createTestAccount(3, entities.RoleMasterAgent, int64Ptr(4)),
		createTestAccount(4, entities.RoleSuperMaster, int64Ptr(5)),
		createTestAccount(5, entities.RoleAdmin, nil),
	)
}

func TestHierarchyWalker_GetUpline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		accounts  *accountMap
		accountID int64
		maxDepth  int
		want      []int64
	}{
		{
			name:      "walks to root",
			accounts:  standardHierarchy(),
			accountID: 1,
			maxDepth:  10,
			want:      []int64{2, 3, 4, 5},
		},
		{
			name:      "stops at max depth",
			accounts:  standardHierarchy(),
			accountID: 1,
			maxDepth:  2,
			want:      []int64{2, 3},
		},
		{
			name:      "root has no upline",
			accounts:  standardHierarchy(),
			accountID: 5,
			maxDepth:  10,
			want:      []int64{},
		},
		{
			name:      "zero depth returns nothing",
			accounts:  standardHierarchy(),
			accountID: 1,
			maxDepth:  0,
			want:      nil,
		},
		{
			name: "dangling parent ends the walk",
			accounts: newAccountMap(
				createTestAccount(1, entities.RolePlayer, int64Ptr(2)),
				createTestAccount(2, entities.RoleAgent, int64Ptr(99)),
			),
			accountID: 1,
			maxDepth:  10,
			want:      []int64{2},
		},
		{
			name: "misordered roles stay in the chain",
			accounts: newAccountMap(
				createTestAccount(1, entities.RolePlayer, int64Ptr(2)),
				createTestAccount(2, entities.RoleMasterAgent, int64Ptr(3)),
				createTestAccount(3, entities.RoleAgent, nil),
			),
			accountID: 1,
			maxDepth:  10,
			want:      []int64{2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			walker := NewHierarchyWalker(tt.accounts)
			upline, err := walker.GetUpline(context.Background(), tt.accountID, tt.maxDepth)
			require.NoError(t, err)

			if tt.want == nil {
				assert.Empty(t, upline)
				return
			}
			assert.Equal(t, tt.want, uplineIDs(upline))
		})
	}
}

func TestHierarchyWalker_CycleTerminates(t *testing.T) {
	t.Parallel()

	// 1 -> 2 -> 3 -> 1
	accounts := newAccountMap(
		createTestAccount(1, entities.RoleAgent, int64Ptr(2)),
		createTestAccount(2, entities.RoleMasterAgent, int64Ptr(3)),
		createTestAccount(3, entities.RoleSuperMaster, int64Ptr(1)),
	)

	walker := NewHierarchyWalker(accounts)
	upline, err := walker.GetUpline(context.Background(), 1, 1000)
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 3}, uplineIDs(upline))
	assert.LessOrEqual(t, accounts.lookups, 3)
}

func TestHierarchyWalker_SelfParentTerminates(t *testing.T) {
	t.Parallel()

	accounts := newAccountMap(createTestAccount(1, entities.RoleAgent, int64Ptr(1)))

	walker := NewHierarchyWalker(accounts)
	upline, err := walker.GetUpline(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, upline)
}

func TestHierarchyWalker_CycleBeyondDepthIsCapped(t *testing.T) {
	t.Parallel()

	// A long chain ending in a cycle is cut off by max depth before the cycle is seen
	accounts := newAccountMap()
	for id := int64(1); id <= 50; id++ {
		parent := id + 1
		if id == 50 {
			parent = 1
		}
		accounts.accounts[id] = createTestAccount(id, entities.RoleAgent, int64Ptr(parent))
	}

	walker := NewHierarchyWalker(accounts)
	upline, err := walker.GetUpline(context.Background(), 1, 4)
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 3, 4, 5}, uplineIDs(upline))
	assert.Equal(t, 5, accounts.lookups)
}

func TestHierarchyWalker_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing start account", func(t *testing.T) {
		t.Parallel()
		walker := NewHierarchyWalker(newAccountMap())
		upline, err := walker.GetUpline(context.Background(), 7, 3)
		assert.ErrorIs(t, err, entities.ErrAccountNotFound)
		assert.Nil(t, upline)
	})

	t.Run("repository failure", func(t *testing.T) {
		t.Parallel()
		accounts := newAccountMap()
		accounts.err = errors.New("database unavailable")
		walker := NewHierarchyWalker(accounts)
		upline, err := walker.GetUpline(context.Background(), 7, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database unavailable")
		assert.Nil(t, upline)
	})
}

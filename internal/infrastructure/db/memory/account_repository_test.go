package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piar/backoffice/internal/core/domain"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAccountRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	a := domain.NewAccount("id-1", "ACC-1", "a@example.com", "hash", domain.RoleUser, now)
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)

	got, err = repo.FindByAccountCode(ctx, "ACC-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	got, err = repo.FindByID(ctx, "id-1")
	require.NoError(t, err)
	got.Role = domain.RoleAdmin

	again, _ := repo.FindByID(ctx, "id-1")
	assert.Equal(t, domain.RoleUser, again.Role, "returned accounts must be copies")

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_UniqueEmailAndCode(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	require.NoError(t, repo.Create(ctx, domain.NewAccount("id-1", "ACC-1", "a@example.com", "", domain.RoleUser, now)))

	err := repo.Create(ctx, domain.NewAccount("id-2", "ACC-2", "a@example.com", "", domain.RoleUser, now))
	assert.True(t, domain.HasCode(err, domain.CodeResourceAlreadyExists))

	err = repo.Create(ctx, domain.NewAccount("id-3", "ACC-1", "c@example.com", "", domain.RoleUser, now))
	assert.True(t, domain.HasCode(err, domain.CodeResourceAlreadyExists))

	list, _ := repo.List(ctx)
	assert.Len(t, list, 1, "failed creates must leave the store unchanged")
}

func TestAccountRepository_EmailOptional(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	require.NoError(t, repo.Create(ctx, domain.NewAccount("id-1", "ACC-1", "", "", domain.RoleUser, now)))
	require.NoError(t, repo.Create(ctx, domain.NewAccount("id-2", "ACC-2", "", "", domain.RoleUser, now)))

	_, err := repo.FindByEmail(ctx, "")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := domain.NewAccount(fmt.Sprintf("id-%d", i), fmt.Sprintf("ACC-%d", i), "same@example.com", "", domain.RoleUser, now)
			if repo.Create(ctx, a) == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	list, _ := repo.List(ctx)
	assert.Len(t, list, 1)
}

func TestAccountRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	a := domain.NewAccount("id-1", "ACC-1", "a@example.com", "", domain.RoleUser, now)
	require.NoError(t, repo.Create(ctx, a))

	a.ChangeRole(domain.RoleAdmin, now.Add(time.Hour))
	a.AccountCode = "CHANGED"
	require.NoError(t, repo.Update(ctx, a))

	got, _ := repo.FindByID(ctx, "id-1")
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "ACC-1", got.AccountCode, "account code is immutable")
	assert.Equal(t, now.Add(time.Hour), got.UpdatedAt)

	assert.ErrorIs(t, repo.Update(ctx, domain.NewAccount("nope", "X", "", "", "", now)), domain.ErrAccountNotFound)

	require.NoError(t, repo.Delete(ctx, "id-1"))
	_, err := repo.FindByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "id-1"), domain.ErrAccountNotFound)
}

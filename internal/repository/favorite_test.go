package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"factvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := testCtx()

	user := createTestUser(t, db, "alice")
	fact := createTestFact(t, db, "Octopuses have three hearts.", "animals", true)

	exists, err := repo.Exists(ctx, user.ID, fact.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: user.ID, FactID: fact.ID}))

	exists, err = repo.Exists(ctx, user.ID, fact.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.CountForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err := repo.Delete(ctx, user.ID, fact.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Second delete finds nothing.
	deleted, err = repo.Delete(ctx, user.ID, fact.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestFavoriteRepository_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := testCtx()

	user := createTestUser(t, db, "bob")
	fact := createTestFact(t, db, "Sharks have existed longer than trees.", "animals", true)

	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: user.ID, FactID: fact.ID}))

	err := repo.Create(ctx, &models.Favorite{UserID: user.ID, FactID: fact.ID})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "Already in favorites", appErr.Message)

	// Exactly one row survived.
	count, err := repo.CountForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// Concurrent creates of the same pair must resolve to exactly one stored row;
// every loser sees a conflict, never an internal error.
func TestFavoriteRepository_ConcurrentCreates(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := testCtx()

	user := createTestUser(t, db, "carol")
	fact := createTestFact(t, db, "Wombat poop is cube-shaped.", "animals", true)

	const attempts = 10
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &models.Favorite{UserID: user.ID, FactID: fact.ID})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr), "unexpected error type: %v", err)
		assert.Equal(t, "CONFLICT", appErr.Code)
	}
	assert.Equal(t, 1, successes)

	count, err := repo.CountForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFavoriteRepository_ListActiveFacts(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := testCtx()

	user := createTestUser(t, db, "dave")
	other := createTestUser(t, db, "erin")

	var factIDs []uint
	for i := 0; i < 3; i++ {
		fact := createTestFact(t, db, fmt.Sprintf("fact %d", i), "science", true)
		factIDs = append(factIDs, fact.ID)
		require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: user.ID, FactID: fact.ID}))
	}

	// A retired fact and another user's favorite must not appear.
	retired := createTestFact(t, db, "retired fact", "science", false)
	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: user.ID, FactID: retired.ID}))
	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: other.ID, FactID: factIDs[0]}))

	facts, err := repo.ListActiveFacts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, facts, 3)
	for i, fact := range facts {
		assert.Equal(t, factIDs[i], fact.ID)
	}
}

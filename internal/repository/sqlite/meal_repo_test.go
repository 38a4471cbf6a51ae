package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calai/internal/config"
	"calai/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(&config.DBConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testMeal(session string) *domain.MealRecord {
	return &domain.MealRecord{
		ID:        uuid.New(),
		SessionID: session,
		Query:     "what did I eat?",
		Summary: domain.MealSummary{
			NutritionFacts: domain.NutritionFacts{CaloriesKcal: 420.5, ProteinG: 18},
			TotalMassGrams: 310,
			SegmentCount:   2,
		},
		Segments: []domain.SegmentNutrition{
			{SegmentID: 1, FoodName: "rice", TotalMassGrams: 150},
			{SegmentID: 2, FoodName: "dal", TotalMassGrams: 160},
		},
		AnalyzedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestMealRepoSaveAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewMealRepo(db)

	meal := testMeal("sess-1")
	require.NoError(t, repo.Save(context.Background(), meal))

	got, err := repo.GetByID(context.Background(), meal.ID.String())
	require.NoError(t, err)

	assert.Equal(t, meal.ID, got.ID)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, meal.Summary, got.Summary)
	assert.Equal(t, meal.Segments, got.Segments)
	assert.True(t, meal.AnalyzedAt.Equal(got.AnalyzedAt))
}

func TestMealRepoGetMissing(t *testing.T) {
	db := testDB(t)
	repo := NewMealRepo(db)

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMealRepoListBySession(t *testing.T) {
	db := testDB(t)
	repo := NewMealRepo(db)

	require.NoError(t, repo.Save(context.Background(), testMeal("sess-a")))
	require.NoError(t, repo.Save(context.Background(), testMeal("sess-a")))
	require.NoError(t, repo.Save(context.Background(), testMeal("sess-b")))

	meals, err := repo.ListBySession(context.Background(), "sess-a", 10)
	require.NoError(t, err)
	assert.Len(t, meals, 2)

	all, err := repo.ListAll(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := repo.ListAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestChatRepoAppendAndRecent(t *testing.T) {
	db := testDB(t)
	repo := NewChatRepo(db)
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Append(ctx, "sess-1", domain.ChatTurn{
			Role:    domain.ChatRoleUser,
			Content: content,
		}))
	}

	turns, err := repo.Recent(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// Chronological order, most recent turns only.
	assert.Equal(t, "second", turns[0].Content)
	assert.Equal(t, "third", turns[1].Content)

	none, err := repo.Recent(ctx, "sess-other", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPhotoRepoSaveAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewPhotoRepo(db)

	meta := &domain.PhotoMeta{
		ID:           uuid.New(),
		SessionID:    "sess-1",
		FileName:     "photo.jpg",
		OriginalName: "IMG_0042.jpg",
		FileType:     domain.FileTypeJPG,
		FileSize:     123456,
		StorageKey:   "sessions/sess-1/photos/photo.jpg",
		ContentType:  "image/jpeg",
	}
	require.NoError(t, repo.Save(context.Background(), meta))

	got, err := repo.GetByID(context.Background(), meta.ID.String())
	require.NoError(t, err)
	assert.Equal(t, meta.StorageKey, got.StorageKey)
	assert.Equal(t, domain.FileTypeJPG, got.FileType)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

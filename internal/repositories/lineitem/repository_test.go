package lineitem_test

import (
	"context"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gantryhq/gantry/internal/repositories/lineitem"
	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		t.Skip("Skipping integration test: DB_HOST not set")
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "gantry"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func seedEstimate(t *testing.T, db database.DB, name string) int64 {
	t.Helper()
	var id int64
	err := db.GetContext(context.Background(), &id,
		"INSERT INTO estimates (project_name) VALUES ($1) RETURNING id", name)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DELETE FROM estimates WHERE id = $1", id)
	})

	return id
}

func seedLineItem(t *testing.T, db database.DB, estimateID int64, uid, name string, itemType models.LineItemType) int64 {
	t.Helper()
	var id int64
	err := db.GetContext(context.Background(), &id,
		"INSERT INTO estimate_line_items (uid, estimate_id, name, type) VALUES ($1, $2, $3, $4) RETURNING id",
		uid, estimateID, name, string(itemType))
	require.NoError(t, err)
	return id
}

func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	repo := lineitem.NewRepository(db, logger)
	ctx := context.Background()

	estimateID := seedEstimate(t, db, "Integration Harness")
	otherEstimateID := seedEstimate(t, db, "Other Project")

	phaseID := seedLineItem(t, db, estimateID, "ph-1", "Discovery", models.LineItemTypePhase)
	taskID := seedLineItem(t, db, estimateID, "tk-1", "Interviews", models.LineItemTypeTask)

	t.Run("GetByID", func(t *testing.T) {
		item, err := repo.GetByID(ctx, estimateID, taskID)
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, taskID, item.ID)
		require.NotNil(t, item.UID)
		assert.Equal(t, "tk-1", *item.UID)
		assert.Equal(t, models.LineItemTypeTask, item.Type)
	})

	t.Run("GetByID_WrongEstimate", func(t *testing.T) {
		item, err := repo.GetByID(ctx, otherEstimateID, taskID)
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("GetByUID", func(t *testing.T) {
		item, err := repo.GetByUID(ctx, estimateID, "ph-1")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, phaseID, item.ID)
	})

	t.Run("GetByUID_Absent", func(t *testing.T) {
		item, err := repo.GetByUID(ctx, estimateID, "no-such-uid")
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("ListByEstimate", func(t *testing.T) {
		items, err := repo.ListByEstimate(ctx, estimateID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, phaseID, items[0].ID)
		assert.Equal(t, taskID, items[1].ID)
	})

	t.Run("GetManyByIDs", func(t *testing.T) {
		items, err := repo.GetManyByIDs(ctx, estimateID, []int64{phaseID, taskID})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = repo.GetManyByIDs(ctx, estimateID, nil)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("GetManyByUIDs", func(t *testing.T) {
		items, err := repo.GetManyByUIDs(ctx, estimateID, []string{"ph-1", "tk-1", "no-such-uid"})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("UpdateFieldsTx", func(t *testing.T) {
		tx, err := db.Begin(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		err = repo.UpdateFieldsTx(ctx, tx, taskID, map[string]any{"name": "Stakeholder interviews", "notes": "two rounds"})
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		item, err := repo.GetByID(ctx, estimateID, taskID)
		require.NoError(t, err)
		require.NotNil(t, item)
		require.NotNil(t, item.Name)
		assert.Equal(t, "Stakeholder interviews", *item.Name)
		require.NotNil(t, item.Notes)
		assert.Equal(t, "two rounds", *item.Notes)
	})

	t.Run("UpdateHoursTx", func(t *testing.T) {
		tx, err := db.Begin(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		err = repo.UpdateHoursTx(ctx, tx, taskID, decimal.RequireFromString("12.50"))
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		item, err := repo.GetByID(ctx, estimateID, taskID)
		require.NoError(t, err)
		require.NotNil(t, item)
		require.True(t, item.Hours.Valid)
		assert.True(t, item.Hours.Decimal.Equal(decimal.RequireFromString("12.50")))
	})
}

package allocations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/faults"
	"github.com/gantryhq/gantry/pkg/models"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) IsOpen() bool { return !t.committed && !t.rolledBack }

func (t *fakeTx) GetContext(context.Context, any, string, ...any) error { return nil }

func (t *fakeTx) SelectContext(context.Context, any, string, ...any) error { return nil }

func (t *fakeTx) ExecContext(context.Context, string, ...any) (sql.Result, error) { return nil, nil }

func (t *fakeTx) NamedExecContext(context.Context, string, any) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) Begin(context.Context, *sql.TxOptions) (database.Tx, error) {
	d.tx = &fakeTx{}
	return d.tx, nil
}

type fakeEstimates struct {
	estimate *models.Estimate
}

func (f *fakeEstimates) GetByID(context.Context, int64) (*models.Estimate, error) {
	return f.estimate, nil
}

type hoursUpdate struct {
	id    int64
	hours decimal.Decimal
}

type fakeItems struct {
	items        map[int64]*models.LineItem
	hoursUpdates []hoursUpdate
	failUpdate   bool
}

func (f *fakeItems) GetByID(_ context.Context, estimateID, id int64) (*models.LineItem, error) {
	item, ok := f.items[id]
	if !ok || item.EstimateID != estimateID {
		return nil, nil
	}
	return item, nil
}

func (f *fakeItems) UpdateHoursTx(_ context.Context, _ database.Tx, id int64, hours decimal.Decimal) error {
	if f.failUpdate {
		return errors.New("write failed")
	}
	f.hoursUpdates = append(f.hoursUpdates, hoursUpdate{id: id, hours: hours})
	return nil
}

type fakeAllocations struct {
	deletedFor []int64
	inserted   map[int64][]models.AllocationInput
}

func (f *fakeAllocations) DeleteForTaskTx(_ context.Context, _ database.Tx, taskID int64) error {
	f.deletedFor = append(f.deletedFor, taskID)
	return nil
}

func (f *fakeAllocations) BulkInsertTx(_ context.Context, _ database.Tx, taskID int64, allocations []models.AllocationInput) error {
	if f.inserted == nil {
		f.inserted = map[int64][]models.AllocationInput{}
	}
	f.inserted[taskID] = allocations
	return nil
}

type fixture struct {
	service     *Service
	db          *fakeDB
	estimates   *fakeEstimates
	items       *fakeItems
	allocations *fakeAllocations
}

func int64Ptr(v int64) *int64 { return &v }

func hoursOf(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// newFixture builds task 30 under module 20 under root phase 10, with the
// hour figures already including the task's current 10.00 hours.
func newFixture() *fixture {
	f := &fixture{
		db:          &fakeDB{},
		estimates:   &fakeEstimates{estimate: &models.Estimate{ID: 1, ProjectName: "Rollout"}},
		allocations: &fakeAllocations{},
		items: &fakeItems{items: map[int64]*models.LineItem{
			10: {ID: 10, EstimateID: 1, Type: models.LineItemTypePhase, Hours: hoursOf("100.00")},
			20: {ID: 20, EstimateID: 1, Type: models.LineItemTypeModule, ParentID: int64Ptr(10), Hours: hoursOf("40.00")},
			30: {ID: 30, EstimateID: 1, Type: models.LineItemTypeTask, ParentID: int64Ptr(20), Hours: hoursOf("10.00")},
		}},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	f.service = NewService(f.db, f.estimates, f.items, f.allocations, nil, logger)
	return f
}

func allocation(resourceID int64, billed, writeOff string) models.AllocationInput {
	return models.AllocationInput{
		EstimateResourceID: resourceID,
		BilledHours:        decimal.RequireFromString(billed),
		WriteOff:           decimal.RequireFromString(writeOff),
	}
}

func TestReconcileProjectMissing(t *testing.T) {
	f := newFixture()
	f.estimates.estimate = nil

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 30, nil)

	assert.True(t, faults.IsKind(err, faults.KindProjectDoesNotExist))
}

func TestReconcileTaskMissing(t *testing.T) {
	f := newFixture()

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 99, nil)

	assert.True(t, faults.IsKind(err, faults.KindTaskDoesNotExist))
}

func TestReconcileModuleMissing(t *testing.T) {
	f := newFixture()
	f.items.items[30].ParentID = int64Ptr(77)

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 30, nil)

	assert.True(t, faults.IsKind(err, faults.KindModuleDoesNotExist))
}

func TestReconcileRootlessTaskHasNoModule(t *testing.T) {
	f := newFixture()
	f.items.items[30].ParentID = nil

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 30, nil)

	assert.True(t, faults.IsKind(err, faults.KindModuleDoesNotExist))
}

func TestReconcilePhaseMissing(t *testing.T) {
	f := newFixture()
	f.items.items[20].ParentID = int64Ptr(88)

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 30, nil)

	assert.True(t, faults.IsKind(err, faults.KindPhaseDoesNotExist))
	assert.Nil(t, f.db.tx)
}

func TestReconcilePropagatesDecimalHours(t *testing.T) {
	f := newFixture()

	response, err := f.service.ReconcileAssignees(context.Background(), 1, 30, []models.AllocationInput{
		allocation(100, "8.25", "0.50"),
		allocation(101, "4.00", "1.25"),
	})
	require.NoError(t, err)

	// planned = 8.25+0.50+4.00+1.25 = 14.00
	planned := decimal.RequireFromString("14.00")

	require.NotNil(t, f.db.tx)
	assert.True(t, f.db.tx.committed)
	assert.Equal(t, []int64{30}, f.allocations.deletedFor)
	assert.Len(t, f.allocations.inserted[30], 2)

	require.Len(t, f.items.hoursUpdates, 3)
	assert.Equal(t, int64(30), f.items.hoursUpdates[0].id)
	assert.True(t, f.items.hoursUpdates[0].hours.Equal(planned))

	// module: 40 - 10 + 14 = 44, phase: 100 - 10 + 14 = 104
	assert.Equal(t, int64(20), f.items.hoursUpdates[1].id)
	assert.True(t, f.items.hoursUpdates[1].hours.Equal(decimal.RequireFromString("44.00")))
	assert.Equal(t, int64(10), f.items.hoursUpdates[2].id)
	assert.True(t, f.items.hoursUpdates[2].hours.Equal(decimal.RequireFromString("104.00")))

	require.Len(t, response.UpdatedHours, 2)
	assert.Equal(t, models.LineItemTypeModule, response.UpdatedHours[0].Type)
	assert.Equal(t, models.LineItemTypePhase, response.UpdatedHours[1].Type)

	require.Contains(t, response.Allocations, "100")
	require.Contains(t, response.Allocations, "101")
	assert.True(t, response.Allocations["100"].BilledHours.Equal(decimal.RequireFromString("8.25")))
}

func TestReconcileExactDecimalSums(t *testing.T) {
	// 0.1 + 0.2 style inputs stay exact under decimal arithmetic.
	f := newFixture()

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 30, []models.AllocationInput{
		allocation(100, "0.10", "0.20"),
		allocation(101, "0.30", "0.00"),
	})
	require.NoError(t, err)

	require.NotEmpty(t, f.items.hoursUpdates)
	assert.True(t, f.items.hoursUpdates[0].hours.Equal(decimal.RequireFromString("0.60")))
}

func TestReconcileModuleOutsideChainLeavesAncestorsAlone(t *testing.T) {
	// A parent that is not module-tagged (or has no phase above it) gets no
	// hour adjustment; only the task's own hours change.
	f := newFixture()
	f.items.items[20].ParentID = nil

	response, err := f.service.ReconcileAssignees(context.Background(), 1, 30, []models.AllocationInput{
		allocation(100, "5.00", "0.00"),
	})
	require.NoError(t, err)

	require.Len(t, f.items.hoursUpdates, 1)
	assert.Equal(t, int64(30), f.items.hoursUpdates[0].id)
	assert.Empty(t, response.UpdatedHours)
}

func TestReconcileEmptyReplacementListZeroesHours(t *testing.T) {
	f := newFixture()

	response, err := f.service.ReconcileAssignees(context.Background(), 1, 30, nil)
	require.NoError(t, err)

	// Task drops to zero; ancestors lose exactly the task's prior hours.
	require.Len(t, f.items.hoursUpdates, 3)
	assert.True(t, f.items.hoursUpdates[0].hours.IsZero())
	assert.True(t, f.items.hoursUpdates[1].hours.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, f.items.hoursUpdates[2].hours.Equal(decimal.RequireFromString("90.00")))
	assert.Empty(t, response.Allocations)
}

func TestReconcileTransactionFailureMapsToFault(t *testing.T) {
	f := newFixture()
	f.items.failUpdate = true

	_, err := f.service.ReconcileAssignees(context.Background(), 1, 30, []models.AllocationInput{
		allocation(100, "2.00", "0.00"),
	})

	assert.True(t, faults.IsKind(err, faults.KindResourceAllocationTransaction))
	require.NotNil(t, f.db.tx)
	assert.True(t, f.db.tx.rolledBack)
	assert.False(t, f.db.tx.committed)
}

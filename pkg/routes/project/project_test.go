package project

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryhq/gantry/pkg/faults"
	"github.com/gantryhq/gantry/pkg/middleware"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/normalize"
)

type fakeSummaries struct {
	summary *models.ProjectSummary
	err     error
}

func (f *fakeSummaries) GetProjectSummary(_ context.Context, _ int64) (*models.ProjectSummary, error) {
	return f.summary, f.err
}

type fakeTasks struct {
	updateErr error
	bulkErr   error

	projectID int64
	taskID    int64
	req       models.UpdateTaskRequest
	bulkItems []models.BulkUpdateTaskItem
}

func (f *fakeTasks) UpdateTask(_ context.Context, projectID, taskID int64, req models.UpdateTaskRequest) error {
	f.projectID = projectID
	f.taskID = taskID
	f.req = req
	return f.updateErr
}

func (f *fakeTasks) UpdateTasksInBulk(_ context.Context, projectID int64, items []models.BulkUpdateTaskItem) error {
	f.projectID = projectID
	f.bulkItems = items
	return f.bulkErr
}

type fakeAllocations struct {
	result *models.ReconcileAssigneesResponse
	err    error

	projectID    int64
	taskID       int64
	replacements []models.AllocationInput
}

func (f *fakeAllocations) ReconcileAssignees(_ context.Context, projectID, taskID int64, replacements []models.AllocationInput) (*models.ReconcileAssigneesResponse, error) {
	f.projectID = projectID
	f.taskID = taskID
	f.replacements = replacements
	return f.result, f.err
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestServer(summaries *fakeSummaries, tasks *fakeTasks, allocations *fakeAllocations) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(testLogger())

	handler := NewHandler(summaries, tasks, allocations, testLogger())
	handler.Register(e.Group("/api/project"))

	return e
}

func doRequest(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetProjectSummary(t *testing.T) {
	details := models.ProjectDetails{
		Tasks:               normalize.NewCollection[*models.TaskItem](),
		Modules:             normalize.NewCollection[*models.ModuleItem](),
		Phases:              normalize.NewCollection[*models.PhaseItem](),
		ResourceAllocations: normalize.NewCollection[*models.ResourceAllocationItem](),
		Assignees:           normalize.NewCollection[*models.Assignee](),
	}
	summaries := &fakeSummaries{
		summary: &models.ProjectSummary{ID: "7", ProjectName: "Harbor Upgrade", Details: details},
	}
	e := newTestServer(summaries, &fakeTasks{}, &fakeAllocations{})

	rec := doRequest(e, http.MethodGet, "/api/project/7", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "7", body["id"])
	assert.Equal(t, "Harbor Upgrade", body["projectName"])
}

func TestGetProjectSummary_MissingProject(t *testing.T) {
	summaries := &fakeSummaries{err: faults.ProjectDoesNotExist()}
	e := newTestServer(summaries, &fakeTasks{}, &fakeAllocations{})

	rec := doRequest(e, http.MethodGet, "/api/project/999", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Project doesn't exists", body.Message)
	assert.Equal(t, string(faults.KindProjectDoesNotExist), body.Meta["error"])
}

func TestGetProjectSummary_InvalidProjectID(t *testing.T) {
	e := newTestServer(&fakeSummaries{}, &fakeTasks{}, &fakeAllocations{})

	rec := doRequest(e, http.MethodGet, "/api/project/not-a-number", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTask(t *testing.T) {
	tasks := &fakeTasks{}
	e := newTestServer(&fakeSummaries{}, tasks, &fakeAllocations{})

	rec := doRequest(e, http.MethodPatch, "/api/project/7/12", map[string]any{
		"name":   "Wire the pump room",
		"status": "in-progress",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), tasks.projectID)
	assert.Equal(t, int64(12), tasks.taskID)
	require.NotNil(t, tasks.req.Name)
	assert.Equal(t, "Wire the pump room", *tasks.req.Name)
	require.NotNil(t, tasks.req.Status)
	assert.Equal(t, "in-progress", *tasks.req.Status)
}

func TestUpdateTask_FaultStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"task missing", faults.TaskDoesNotExist(), http.StatusNotFound},
		{"status missing", faults.StatusDoesNotExist(), http.StatusNotFound},
		{"parent missing", faults.ParentTaskDoesNotExist(), http.StatusBadRequest},
		{"bad start date", faults.InvalidStartDate(), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks := &fakeTasks{updateErr: tc.err}
			e := newTestServer(&fakeSummaries{}, tasks, &fakeAllocations{})

			rec := doRequest(e, http.MethodPatch, "/api/project/7/12", map[string]any{"name": "x"})

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestUpdateTasksInBulk(t *testing.T) {
	tasks := &fakeTasks{}
	e := newTestServer(&fakeSummaries{}, tasks, &fakeAllocations{})

	rec := doRequest(e, http.MethodPatch, "/api/project/7/bulk-task", []map[string]any{
		{"id": 12, "status": "done"},
		{"id": 13, "status": "done"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), tasks.projectID)
	require.Len(t, tasks.bulkItems, 2)
	assert.Equal(t, int64(12), tasks.bulkItems[0].ID)
	assert.Equal(t, int64(13), tasks.bulkItems[1].ID)
}

func TestUpdateTasksInBulk_MissingID(t *testing.T) {
	e := newTestServer(&fakeSummaries{}, &fakeTasks{}, &fakeAllocations{})

	rec := doRequest(e, http.MethodPatch, "/api/project/7/bulk-task", []map[string]any{
		{"status": "done"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcileAssignees(t *testing.T) {
	allocations := &fakeAllocations{
		result: &models.ReconcileAssigneesResponse{
			Allocations: map[string]models.AllocationInput{
				"4": {EstimateResourceID: 4, BilledHours: decimal.RequireFromString("8.00"), WriteOff: decimal.RequireFromString("0.50")},
			},
			UpdatedHours: []models.UpdatedHoursItem{
				{ID: 20, Type: models.LineItemTypeModule, Hours: decimal.RequireFromString("44.00")},
			},
		},
	}
	e := newTestServer(&fakeSummaries{}, &fakeTasks{}, allocations)

	rec := doRequest(e, http.MethodPatch, "/api/project/7/12/assignees", []map[string]any{
		{"estimateResourceId": 4, "billedHours": "8.00", "writeOff": "0.50"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), allocations.projectID)
	assert.Equal(t, int64(12), allocations.taskID)
	require.Len(t, allocations.replacements, 1)
	assert.Equal(t, int64(4), allocations.replacements[0].EstimateResourceID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "updatedHours")
}

func TestReconcileAssignees_TransactionFault(t *testing.T) {
	allocations := &fakeAllocations{err: faults.ResourceAllocationTransaction()}
	e := newTestServer(&fakeSummaries{}, &fakeTasks{}, allocations)

	rec := doRequest(e, http.MethodPatch, "/api/project/7/12/assignees", []map[string]any{
		{"estimateResourceId": 4, "billedHours": "8.00", "writeOff": "0.00"},
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

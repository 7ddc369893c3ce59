package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/roomroster/internal/config"
	"github.com/dgallion1/roomroster/internal/pathstore"
	"github.com/dgallion1/roomroster/internal/roster"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error {
	args := m.Called(ctx, key, req)
	return args.Error(0)
}

func (m *mockStore) ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ListChildrenResponse, error) {
	args := m.Called(ctx, key, limit)
	nodes, _ := args.Get(0).([]pathstore.ListChildrenResponse)
	return nodes, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rosterWorkbook builds a one-house workbook with rooms 101 and 102.
func rosterWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"House A"},
		{"Room", "Name", "No."},
		{"101", "Kim", "20251234"},
		{"102", "Lee", "20255678"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func roomKey(jobID, house, room string) string {
	return pathstore.Key("rosters", jobID, "rooms", house, room)
}

func TestWorker_ProcessWithoutStore(t *testing.T) {
	stats := NewParseStats(time.Hour)
	w := NewWorker(nil, stats, discardLogger(), "", 2)
	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.Progress.Rooms)
	assert.Equal(t, 1, snap.Progress.Sections)
	assert.NotEmpty(t, snap.ContentHash)
	assert.Nil(t, job.FileData(), "file bytes are released after processing")

	rooms := job.Rooms()
	require.Contains(t, rooms, roster.RoomKey("House A", "101"))
	assert.Equal(t, []roster.Resident{{Name: "Kim", StudentNumber: "20251234"}}, rooms[roster.RoomKey("House A", "101")].Residents)
	assert.Equal(t, 1, stats.Snapshot().Parses)
}

func TestWorker_ProcessPublishes(t *testing.T) {
	store := &mockStore{}
	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))

	store.On("ListChildren", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "rosters/by_hash/")
	}), 1).Return(nil, nil)
	store.On("PutNode", mock.Anything, roomKey(job.ID, "House A", "101"), mock.Anything).Return(nil)
	store.On("PutNode", mock.Anything, roomKey(job.ID, "House A", "102"), mock.Anything).Return(nil)
	store.On("PutNode", mock.Anything, "rosters/"+job.ID+"/meta", mock.Anything).Return(nil)
	store.On("PutNode", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "rosters/by_hash/") && strings.HasSuffix(k, "/"+job.ID)
	}), mock.Anything).Return(nil)

	NewWorker(store, nil, discardLogger(), "", 1).Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.Progress.RoomsPublished)
	assert.Empty(t, snap.Progress.Errors)
	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "PutNode", 4)
}

func TestWorker_ProcessSkipsDuplicate(t *testing.T) {
	store := &mockStore{}
	store.On("ListChildren", mock.Anything, mock.Anything, 1).Return([]pathstore.ListChildrenResponse{
		{Key: "rosters.by_hash.abc.earlier-import"},
	}, nil)

	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))
	NewWorker(store, nil, discardLogger(), "", 1).Process(context.Background(), job)

	assert.Equal(t, StatusDupSkipped, job.Snapshot().Status)
	assert.Len(t, job.Rooms(), 2, "rooms stay available on a skipped import")
	store.AssertNotCalled(t, "PutNode", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_ProcessPartialPublish(t *testing.T) {
	store := &mockStore{}
	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))

	store.On("ListChildren", mock.Anything, mock.Anything, 1).Return(nil, errors.New("pathstore down"))
	store.On("PutNode", mock.Anything, roomKey(job.ID, "House A", "101"), mock.Anything).Return(nil)
	store.On("PutNode", mock.Anything, roomKey(job.ID, "House A", "102"), mock.Anything).Return(errors.New("status 500"))
	store.On("PutNode", mock.Anything, "rosters/"+job.ID+"/meta", mock.Anything).Return(nil)

	NewWorker(store, nil, discardLogger(), "", 2).Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 1, snap.Progress.RoomsPublished)
	require.Len(t, snap.Progress.Errors, 1)
	assert.Contains(t, snap.Progress.Errors[0], "status 500")
	// A failed import must not be registered in the hash index.
	store.AssertNumberOfCalls(t, "PutNode", 3)
}

func TestWorker_ProcessAllPublishesFail(t *testing.T) {
	store := &mockStore{}
	store.On("ListChildren", mock.Anything, mock.Anything, 1).Return(nil, nil)
	store.On("PutNode", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("unauthorized"))

	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))
	NewWorker(store, nil, discardLogger(), "", 2).Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "publishing", snap.Phase)
	assert.Len(t, snap.Progress.Errors, 3, "two rooms and the meta node")
}

func TestWorker_ProcessDecodeFailure(t *testing.T) {
	job := NewJob("rooms.xlsx", "", []byte("not a workbook"))
	NewWorker(nil, nil, discardLogger(), "", 1).Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "decoding", snap.Phase)
	require.NotEmpty(t, snap.Progress.Errors)
	assert.Contains(t, snap.Progress.Errors[0], "decode")
}

func TestWorker_ProcessUnsupportedFormat(t *testing.T) {
	job := NewJob("rooms.pdf", "", []byte("%PDF-1.7"))
	NewWorker(nil, nil, discardLogger(), "", 1).Process(context.Background(), job)

	assert.Equal(t, StatusFailed, job.Snapshot().Status)
}

func TestWorker_ProcessUnknownSheet(t *testing.T) {
	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))
	NewWorker(nil, nil, discardLogger(), "Missing", 1).Process(context.Background(), job)

	assert.Equal(t, StatusFailed, job.Snapshot().Status)
}

func TestWorker_ProcessCSVRoster(t *testing.T) {
	csv := "House A,,\nRoom,Name,No.\n101,Kim,1\n"
	job := NewJob("rooms.csv", "text/csv", []byte(csv))
	NewWorker(nil, nil, discardLogger(), "", 1).Process(context.Background(), job)

	assert.Equal(t, StatusCompleted, job.Snapshot().Status)
	assert.Contains(t, job.Rooms(), roster.RoomKey("House A", "101"))
}

func testConfig() config.Config {
	return config.Config{
		WorkerCount:          1,
		MaxQueueSize:         1,
		MaxConcurrentPublish: 1,
		JobTTL:               time.Hour,
		StatsWindow:          time.Hour,
	}
}

func TestOrchestrator_ProcessesSubmittedJob(t *testing.T) {
	o := NewOrchestrator(testConfig(), nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("rooms.xlsx", "", rosterWorkbook(t))
	require.NoError(t, o.Submit(job))
	assert.Same(t, job, o.GetJob(job.ID))

	require.Eventually(t, func() bool {
		return job.Snapshot().Status == StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, o.Stats().Snapshot().Parses)
	assert.False(t, o.Publishing())
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	o := NewOrchestrator(testConfig(), nil, discardLogger())
	defer o.Stop()

	require.NoError(t, o.Submit(NewJob("a.xlsx", "", nil)))
	second := NewJob("b.xlsx", "", []byte("x"))
	err := o.Submit(second)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
	assert.Equal(t, "queue_full", second.Snapshot().Phase)
	assert.Equal(t, 1, o.QueueDepth())
	assert.NotNil(t, o.GetJob(second.ID), "rejected jobs stay pollable")
}

package store

import (
	"context"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetTaskStore implements the StoreManager interface.
func (m *MockStoreManager) GetTaskStore() contract.TaskStore {
	ret := m.Called()
	ts, _ := ret.Get(0).(contract.TaskStore)
	return ts
}

// GetScoreCache implements the StoreManager interface.
func (m *MockStoreManager) GetScoreCache() contract.CacheStore {
	ret := m.Called()
	cs, _ := ret.Get(0).(contract.CacheStore)
	return cs
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockTaskStore is a mock implementation of TaskStore for testing.
type MockTaskStore struct {
	mock.Mock
}

var _ contract.TaskStore = &MockTaskStore{} // Compile-time check

// AlreadyAnnotated implements the TaskStore interface.
func (m *MockTaskStore) AlreadyAnnotated(ctx context.Context, task schema.Task, annotator schema.AnnotatorID) ([]schema.CandidateID, error) {
	args := m.Called(ctx, task, annotator)
	ids, _ := args.Get(0).([]schema.CandidateID)
	return ids, args.Error(1)
}

// SaveRequests implements the TaskStore interface.
func (m *MockTaskStore) SaveRequests(ctx context.Context, runID, taskID string, requests map[schema.AnnotatorID][]schema.AnnotationRequest) error {
	args := m.Called(ctx, runID, taskID, requests)
	return args.Error(0)
}

// ListRequests implements the TaskStore interface.
func (m *MockTaskStore) ListRequests(ctx context.Context, taskID string, annotator schema.AnnotatorID) ([]schema.StoredRequest, error) {
	args := m.Called(ctx, taskID, annotator)
	requests, _ := args.Get(0).([]schema.StoredRequest)
	return requests, args.Error(1)
}

// MarkRequestComplete implements the TaskStore interface.
func (m *MockTaskStore) MarkRequestComplete(ctx context.Context, requestID int64) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

// RequestStatistics implements the TaskStore interface.
func (m *MockTaskStore) RequestStatistics(ctx context.Context, taskID string) (schema.RequestStatistics, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(schema.RequestStatistics), args.Error(1)
}

// FetchAnnotations implements the TaskStore interface.
func (m *MockTaskStore) FetchAnnotations(ctx context.Context, label string) ([]schema.AnnotationRecord, error) {
	args := m.Called(ctx, label)
	records, _ := args.Get(0).([]schema.AnnotationRecord)
	return records, args.Error(1)
}

// ImportAnnotations implements the TaskStore interface.
func (m *MockTaskStore) ImportAnnotations(ctx context.Context, records []schema.AnnotationRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

// BeginGeneration implements the TaskStore interface.
func (m *MockTaskStore) BeginGeneration(ctx context.Context, run schema.GenerationRunRecord) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// EndGeneration implements the TaskStore interface.
func (m *MockTaskStore) EndGeneration(ctx context.Context, runID string, endTime time.Time, totalRequests int) error {
	args := m.Called(ctx, runID, endTime, totalRequests)
	return args.Error(0)
}

// GetAllGenerationRuns implements the TaskStore interface.
func (m *MockTaskStore) GetAllGenerationRuns(ctx context.Context) ([]schema.GenerationRunRecord, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]schema.GenerationRunRecord)
	return runs, args.Error(1)
}

// GetAllRequests implements the TaskStore interface.
func (m *MockTaskStore) GetAllRequests(ctx context.Context) ([]schema.StoredRequest, error) {
	args := m.Called(ctx)
	requests, _ := args.Get(0).([]schema.StoredRequest)
	return requests, args.Error(1)
}

// GetAllAnnotations implements the TaskStore interface.
func (m *MockTaskStore) GetAllAnnotations(ctx context.Context) ([]schema.AnnotationRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.AnnotationRecord)
	return records, args.Error(1)
}

// GetStatus implements the TaskStore interface.
func (m *MockTaskStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the TaskStore interface.
func (m *MockTaskStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Package store persists generation runs, annotation requests, annotations
// and cached scores in a SQL backend.
package store

import (
	"sync"

	"github.com/huangsam/annoq/internal/contract"
)

// Manager holds the task store and the score cache of the process.
type Manager struct {
	sync.RWMutex // Protects the store pointers during initialization
	tasks        contract.TaskStore
	scores       contract.CacheStore
}

var _ contract.StoreManager = &Manager{} // Compile-time check

// GetTaskStore returns the task store.
func (mgr *Manager) GetTaskStore() contract.TaskStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.tasks
}

// GetScoreCache returns the score cache.
func (mgr *Manager) GetScoreCache() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.scores
}

// NewManager wraps already opened stores. Either may be nil.
func NewManager(tasks contract.TaskStore, scores contract.CacheStore) *Manager {
	return &Manager{tasks: tasks, scores: scores}
}

// Package lock provides per-node locking so a hierarchy node observes at
// most one in-flight mutation at a time.
package lock

import "sync"

// nodeMutex wraps a mutex with reference counting for reuse.
type nodeMutex struct {
	mu       sync.Mutex
	refCount int
}

// NodeLock provides locking keyed by node id. Mutating operations against
// the same node serialize; operations against distinct nodes do not.
type NodeLock struct {
	locks sync.Map // map[string]*nodeMutex
	pool  sync.Pool
}

// NewNodeLock creates a new NodeLock instance.
func NewNodeLock() *NodeLock {
	return &NodeLock{
		pool: sync.Pool{
			New: func() any {
				return &nodeMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given node id.
func (nl *NodeLock) getLock(nodeID string) *nodeMutex {
	if v, ok := nl.locks.Load(nodeID); ok {
		return v.(*nodeMutex)
	}

	newLock := nl.pool.Get().(*nodeMutex)
	newLock.refCount = 0

	// LoadOrStore handles two goroutines racing to create the same lock.
	actual, loaded := nl.locks.LoadOrStore(nodeID, newLock)
	if loaded {
		nl.pool.Put(newLock)
	}
	return actual.(*nodeMutex)
}

// Lock acquires the lock for a node.
func (nl *NodeLock) Lock(nodeID string) {
	lock := nl.getLock(nodeID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a node.
func (nl *NodeLock) Unlock(nodeID string) {
	if v, ok := nl.locks.Load(nodeID); ok {
		lock := v.(*nodeMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired.
func (nl *NodeLock) TryLock(nodeID string) bool {
	lock := nl.getLock(nodeID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes fn while holding the node's lock.
func (nl *NodeLock) WithLock(nodeID string, fn func() error) error {
	nl.Lock(nodeID)
	defer nl.Unlock(nodeID)
	return fn()
}

// IsLocked checks if a node currently has an active lock.
// Point-in-time check; the answer may change immediately after.
func (nl *NodeLock) IsLocked(nodeID string) bool {
	if v, ok := nl.locks.Load(nodeID); ok {
		lock := v.(*nodeMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}

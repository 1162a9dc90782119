package services

import "sync"

// partitionLocks serializes load-modify-save cycles per partition key within
// this process.
type partitionLocks struct {
	locks sync.Map
}

func (p *partitionLocks) lock(key string) func() {
	v, _ := p.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

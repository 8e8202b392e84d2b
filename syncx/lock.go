package syncx

import (
	"sync"
)

// LockMap hands out one mutex per key, created on first use.
type LockMap struct {
	locks sync.Map
}

func (lm *LockMap) LoadOrCreate(key any) *sync.Mutex {
	if v, ok := lm.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	v, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

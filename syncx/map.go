package syncx

import (
	"sync"
)

// Map is a typed sync.Map.
type Map[TK comparable, TV any] struct {
	data sync.Map
}

func (m *Map[TK, TV]) Store(key TK, value TV) {
	m.data.Store(key, value)
}

func (m *Map[TK, TV]) Load(key TK) (value TV, ok bool) {
	v, ok := m.data.Load(key)
	if ok {
		value, ok = v.(TV)
	}
	return
}

func (m *Map[TK, TV]) LoadOrStore(key TK, value TV) (TV, bool) {
	v, loaded := m.data.LoadOrStore(key, value)
	return v.(TV), loaded
}

func NewMap[TK comparable, TV any]() *Map[TK, TV] {
	return &Map[TK, TV]{}
}

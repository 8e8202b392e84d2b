package resolution

import (
	"fmt"
	"sync"
)

var registry struct {
	mu      sync.Mutex
	modules []*Module
	names   map[string]struct{}
}

// Register adds a module to the default set scanned when no modules are
// given explicitly. It is meant to be called from init and panics when a
// module of the same name is already registered.
func Register(m *Module) {
	if m == nil {
		panic("resolution: Register module is nil")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.names == nil {
		registry.names = make(map[string]struct{})
	}
	if _, exists := registry.names[m.name]; exists {
		panic(fmt.Sprintf("resolution: module with name '%s' already registered", m.name))
	}
	registry.names[m.name] = struct{}{}
	registry.modules = append(registry.modules, m)
}

// Modules returns the registered modules in registration order.
func Modules() []*Module {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return append([]*Module(nil), registry.modules...)
}

func defaultModules() []*Module {
	return distinctModules(append(Modules(), Self))
}

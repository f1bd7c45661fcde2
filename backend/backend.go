// Package backend holds the driver registry. Concrete drivers register
// themselves from init functions in their own packages; applications select
// one by name or take the best available default.
package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/glshim"
)

// Well-known driver names.
const (
	DriverWGPU = "wgpu"
	DriverNoop = "noop"
)

// ErrNoDriverAvailable is returned when no registered driver matches.
var ErrNoDriverAvailable = errors.New("backend: no driver available")

// Factory creates a new driver instance.
type Factory func() glshim.Driver

var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Factory)

	// Priority order for default selection (first registered wins).
	priority = []string{DriverWGPU, DriverNoop}
)

// Register registers a driver factory under a name. Typically called from
// an init function in the driver package. A driver registered under an
// existing name replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = factory
}

// Unregister removes a driver from the registry. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Available returns the registered driver names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a driver name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Get returns a new instance of the named driver, or nil if the name is
// not registered.
func Get(name string) glshim.Driver {
	registryMu.RLock()
	factory := drivers[name]
	registryMu.RUnlock()
	if factory == nil {
		return nil
	}
	return factory()
}

// Default returns a new instance of the highest-priority registered
// driver, or nil when nothing is registered.
func Default() glshim.Driver {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range priority {
		if factory, ok := drivers[name]; ok {
			return factory()
		}
	}
	for _, factory := range drivers {
		return factory()
	}
	return nil
}

// NewContext creates a context over the named driver ("" selects the
// default) with the given configuration.
func NewContext(name string, cfg glshim.Config) (*glshim.Context, error) {
	var drv glshim.Driver
	if name == "" {
		drv = Default()
	} else {
		drv = Get(name)
	}
	if drv == nil {
		return nil, ErrNoDriverAvailable
	}
	return glshim.NewContext(drv, cfg)
}

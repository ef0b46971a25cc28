package source

import (
	"fmt"
	"sort"
	"sync"
)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available by its name. It panics if a driver
// with the same name is already registered, mirroring database/sql.
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	name := d.Name()
	if name == "" {
		panic("source: driver has no name")
	}
	if _, dup := drivers[name]; dup {
		panic(fmt.Sprintf("source: driver %q registered twice", name))
	}
	drivers[name] = d
}

// Lookup returns the driver registered under name
func Lookup(name string) (Driver, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	return d, ok
}

// Drivers returns the registered driver names, sorted
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unregister removes a driver; tests use it to keep the registry clean
func unregister(name string) {
	driversMu.Lock()
	defer driversMu.Unlock()
	delete(drivers, name)
}

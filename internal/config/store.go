package config

import "kwangun/internal/store"

// Store drivers, as registered by the store package.
const (
	DriverModernc = store.DriverModernc
	DriverMattn   = store.DriverMattn
)

// ValidDrivers lists all supported store drivers.
var ValidDrivers = []string{DriverModernc, DriverMattn}

// StoreConfig configures the reading store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

package config

import "sync/atomic"

// Manager holds the process-wide Config behind an atomic pointer so
// readers never observe a partially constructed value while it is being
// replaced.
type Manager struct {
	config atomic.Pointer[Config]
}

// NewManager returns an empty Manager; call Init or Set before Get.
func NewManager() *Manager {
	return &Manager{}
}

// Init loads the configuration at path (workspaceRoot overriding the
// file's own) and stores it.
func (m *Manager) Init(path, workspaceRoot string) (*Config, error) {
	cfg, err := Load(path, workspaceRoot)
	if err != nil {
		return nil, err
	}
	m.config.Store(cfg)
	return cfg, nil
}

// Set stores cfg directly, bypassing Load.
func (m *Manager) Set(cfg *Config) {
	m.config.Store(cfg)
}

// Get returns the current Config, or nil if Init/Set has never been called.
func (m *Manager) Get() *Config {
	return m.config.Load()
}

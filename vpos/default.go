package vpos

import (
	"sync"

	"bancard-connector/internal/config"
)

var (
	defaultMu   sync.RWMutex
	defaultConn *Connector
)

// InitDefault builds the process-wide connector. Once a call succeeds, later calls
// return ErrAlreadyInitialized. A failed call leaves nothing behind and can be retried.
func InitDefault(cfg Config, opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultConn != nil {
		return ErrAlreadyInitialized
	}
	c, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	defaultConn = c
	return nil
}

// InitDefaultFromEnv initialises the default connector from BANCARD_ENVIRONMENT,
// BANCARD_PUBLIC_KEY and BANCARD_PRIVATE_KEY (a .env file is honoured).
func InitDefaultFromEnv(opts ...Option) error {
	settings, err := config.LoadBancard()
	if err != nil {
		return &Error{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}
	return InitDefault(ConfigFromSettings(settings), opts...)
}

// Default returns the process-wide connector and panics when InitDefault has not
// succeeded.
func Default() *Connector {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	if defaultConn == nil {
		panic("vpos: default connector not initialized")
	}
	return defaultConn
}

// ConfigFromSettings converts loaded settings into a connector configuration.
func ConfigFromSettings(s config.Bancard) Config {
	return Config{
		Environment: Environment(s.Environment),
		PublicKey:   s.PublicKey,
		PrivateKey:  s.PrivateKey,
	}
}

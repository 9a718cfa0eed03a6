package ormap

import (
	"sync/atomic"
)

// Holder owns the current configuration of an application. Configurations
// are swapped as a whole, so readers always observe a complete, frozen
// configuration.
type Holder struct {
	current atomic.Pointer[Configuration]
}

// Current returns the current configuration, or nil if none was set.
func (h *Holder) Current() *Configuration {
	return h.current.Load()
}

// SetCurrent publishes the configuration. A nil configuration clears the
// holder. Configurations that do not resolve types cannot be published.
func (h *Holder) SetCurrent(c *Configuration) error {
	if c != nil && !c.ResolveTypes() {
		return ErrUnresolvedTypes
	}
	h.current.Store(c)
	return nil
}

// Swap publishes the configuration and returns the previous one.
func (h *Holder) Swap(c *Configuration) (*Configuration, error) {
	if c != nil && !c.ResolveTypes() {
		return nil, ErrUnresolvedTypes
	}
	return h.current.Swap(c), nil
}

var defaultHolder Holder

// DefaultHolder returns the process-wide holder used by Current and
// SetCurrent.
func DefaultHolder() *Holder { return &defaultHolder }

// Current returns the process-wide current configuration, or nil.
func Current() *Configuration { return defaultHolder.Current() }

// SetCurrent publishes the process-wide current configuration.
func SetCurrent(c *Configuration) error { return defaultHolder.SetCurrent(c) }

package sequencer

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogLoad      = errors.New("catalog load failed")
	ErrConfiguration    = errors.New("channel not configured")
	ErrMissingContact   = errors.New("prospect missing contact field")
	ErrProviderDelivery = errors.New("provider delivery failed")
	ErrEventPersistence = errors.New("event persistence failed")
)

// CatalogLoadError aborts the whole invocation.
type CatalogLoadError struct {
	Op  string
	Err error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("catalog load: %s: %v", e.Op, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

func (e *CatalogLoadError) Is(target error) bool { return target == ErrCatalogLoad }

// ConfigurationError reports a channel with no sender identity or capability.
type ConfigurationError struct {
	Channel string
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s channel is not configured: missing %s", e.Channel, e.Setting)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MissingContactError reports a prospect without the field its step's channel needs.
type MissingContactError struct {
	ProspectID uint
	Channel    string
	Field      string
}

func (e *MissingContactError) Error() string {
	return fmt.Sprintf("prospect %d has no %s for %s step", e.ProspectID, e.Field, e.Channel)
}

func (e *MissingContactError) Is(target error) bool { return target == ErrMissingContact }

// ProviderDeliveryError wraps a rejection or timeout from the send capability.
type ProviderDeliveryError struct {
	Channel string
	Err     error
}

func (e *ProviderDeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *ProviderDeliveryError) Unwrap() error { return e.Err }

func (e *ProviderDeliveryError) Is(target error) bool { return target == ErrProviderDelivery }

// EventPersistenceError is reported to observability and never returned from Run.
type EventPersistenceError struct {
	ProspectID uint
	Err        error
}

func (e *EventPersistenceError) Error() string {
	return fmt.Sprintf("persist event for prospect %d: %v", e.ProspectID, e.Err)
}

func (e *EventPersistenceError) Unwrap() error { return e.Err }

func (e *EventPersistenceError) Is(target error) bool { return target == ErrEventPersistence }

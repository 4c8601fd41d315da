// If you are AI: this file defines the core error taxonomy shared by every
// subsystem. Callers translate external-input failures into one of these
// sentinels instead of inventing ad-hoc error strings.
package xerr

import "errors"

// Sentinel errors shared across subsystems. Wrap with
// fmt.Errorf("...: %w", Sentinel) to add context.
var (
	// ErrContention means a claim was denied because another node holds it.
	ErrContention = errors.New("contention: claim denied")
	// ErrStaleEpoch means a fencing check observed a newer epoch.
	ErrStaleEpoch = errors.New("stale epoch")
	// ErrNoPublisher means a pull was requested before any publisher exists.
	ErrNoPublisher = errors.New("no publisher for stream")
	// ErrTransportTransient means a registry/bus/store call failed transiently.
	ErrTransportTransient = errors.New("transient transport error")
	// ErrBackpressure means a bounded queue was full.
	ErrBackpressure = errors.New("backpressure: queue full")
	// ErrOptimisticLockConflict means a version-gated write lost its race.
	ErrOptimisticLockConflict = errors.New("optimistic lock conflict")
	// ErrValidation means client input failed a content filter or rate limit.
	ErrValidation = errors.New("validation failed")
)

// Is reports whether err wraps target anywhere in its chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

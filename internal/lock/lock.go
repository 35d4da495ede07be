// Package lock encodes the timed mutual-exclusion protocol for section
// editing. There is no heartbeat channel: a disconnected editor's lock
// simply expires after Duration, at which point any authorized user may
// take it over. Authorization to edit the parent thread is the caller's
// concern; this package only validates the transition itself.
package lock

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

// Duration is how long a section lock is guaranteed to be held without
// renewal. An implementation detail, not an external contract.
const Duration = 10 * time.Minute

// ErrForbidden is returned for every transition outside the legal table,
// e.g. a stranger trying to take a fresh lock. Distinct from
// domain.ErrNotFound so callers map to the correct status code.
var ErrForbidden = errors.New("lock transition forbidden")

// Manager validates lock transitions against the current wall clock.
type Manager struct {
	clock clockwork.Clock
}

func NewManager(clock clockwork.Clock) *Manager {
	return &Manager{clock: clock}
}

// Transition validates a requested lock change and returns the resulting
// lock state. Legal transitions:
//
//	Unlocked        -> LockedBy(requester)  acquire
//	LockedBy(req)   -> Unlocked             release
//	LockedBy(req)   -> LockedBy(req)        renew
//	LockedBy(any)   -> requested target     takeover, once the lock has
//	                                        been held at least Duration
//
// Anything else returns ErrForbidden.
func (m *Manager) Transition(current domain.SectionLock, requesterID int32, target *int32) (domain.SectionLock, error) {
	now := m.clock.Now().UTC().Unix()

	acquire := current.LockHeldByUserID == nil && target != nil && *target == requesterID
	release := current.LockHeldByUserID != nil && *current.LockHeldByUserID == requesterID && target == nil
	renew := current.LockHeldByUserID != nil && *current.LockHeldByUserID == requesterID &&
		target != nil && *target == requesterID
	expired := current.LockAssignedAtUTC+int64(Duration.Seconds()) <= now

	if acquire || release || renew || expired {
		return domain.SectionLock{
			LockHeldByUserID:  target,
			LockAssignedAtUTC: now,
		}, nil
	}

	return domain.SectionLock{}, ErrForbidden
}

package registrar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rvellem/namewrap/node"
)

// ErrNotAvailable is returned when registering a label that is still held,
// including labels inside their post-expiry grace window.
var ErrNotAvailable = errors.New("registrar: label not available")

// ErrNotRegistered is returned when renewing or transferring a label with
// no live registration.
var ErrNotRegistered = errors.New("registrar: label not registered")

// ErrNotRegistrant is returned when a transfer names a from-identity that
// does not hold the registration.
var ErrNotRegistrant = errors.New("registrar: caller is not the registrant")

type registration struct {
	registrant string
	expiry     uint64
}

// InMemory is a process-local registration authority for direct children
// of a single top-level name. It tracks registrant and expiry per label
// hash and applies the grace-window rules the engine's vulnerability
// analysis depends on.
type InMemory struct {
	mu        sync.RWMutex
	grace     time.Duration
	regs      map[node.LabelHash]registration
	approvals map[string]map[string]bool
	now       func() time.Time
}

// NewInMemory returns an empty registrar with the given grace period.
func NewInMemory(grace time.Duration) *InMemory {
	return &InMemory{
		grace:     grace,
		regs:      make(map[node.LabelHash]registration),
		approvals: make(map[string]map[string]bool),
		now:       time.Now,
	}
}

// SetClock replaces the time source. Tests use it to move labels through
// expiry and grace without sleeping.
func (m *InMemory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *InMemory) GracePeriod() time.Duration {
	return m.grace
}

func (m *InMemory) Register(_ context.Context, label node.LabelHash, owner string, duration time.Duration) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowSec := uint64(m.now().Unix())
	if reg, ok := m.regs[label]; ok {
		if nowSec <= reg.expiry+uint64(m.grace.Seconds()) {
			return 0, ErrNotAvailable
		}
	}

	expiry := nowSec + uint64(duration.Seconds())
	m.regs[label] = registration{registrant: owner, expiry: expiry}
	return expiry, nil
}

// Renew extends a registration from its current expiry, not from the
// present moment. Labels inside the grace window are still renewable.
func (m *InMemory) Renew(_ context.Context, label node.LabelHash, duration time.Duration) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.regs[label]
	if !ok {
		return 0, ErrNotRegistered
	}
	nowSec := uint64(m.now().Unix())
	if nowSec > reg.expiry+uint64(m.grace.Seconds()) {
		return 0, ErrNotRegistered
	}

	reg.expiry += uint64(duration.Seconds())
	m.regs[label] = reg
	return reg.expiry, nil
}

func (m *InMemory) NameExpires(_ context.Context, label node.LabelHash) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regs[label].expiry, nil
}

func (m *InMemory) Available(_ context.Context, label node.LabelHash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.regs[label]
	if !ok {
		return true, nil
	}
	nowSec := uint64(m.now().Unix())
	return nowSec > reg.expiry+uint64(m.grace.Seconds()), nil
}

// RegistrantOf reports the holding identity while the registration is
// live or in grace, and the empty string once the label has lapsed.
func (m *InMemory) RegistrantOf(_ context.Context, label node.LabelHash) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.regs[label]
	if !ok {
		return "", nil
	}
	nowSec := uint64(m.now().Unix())
	if nowSec > reg.expiry+uint64(m.grace.Seconds()) {
		return "", nil
	}
	return reg.registrant, nil
}

func (m *InMemory) IsApprovedOrOwner(_ context.Context, caller string, label node.LabelHash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.regs[label]
	if !ok {
		return false, nil
	}
	nowSec := uint64(m.now().Unix())
	if nowSec > reg.expiry+uint64(m.grace.Seconds()) {
		return false, nil
	}
	if caller == reg.registrant {
		return true, nil
	}
	return m.approvals[reg.registrant][caller], nil
}

func (m *InMemory) Transfer(_ context.Context, label node.LabelHash, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.regs[label]
	if !ok {
		return ErrNotRegistered
	}
	nowSec := uint64(m.now().Unix())
	if nowSec > reg.expiry+uint64(m.grace.Seconds()) {
		return ErrNotRegistered
	}
	if reg.registrant != from {
		return ErrNotRegistrant
	}

	reg.registrant = to
	m.regs[label] = reg
	return nil
}

// SetApprovalForAll grants or revokes registrar-level blanket approval.
func (m *InMemory) SetApprovalForAll(_ context.Context, owner, operator string, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := m.approvals[owner]
	if ops == nil {
		if !approved {
			return nil
		}
		ops = make(map[string]bool)
		m.approvals[owner] = ops
	}
	if approved {
		ops[operator] = true
	} else {
		delete(ops, operator)
	}
	return nil
}

// Package timeutil abstracts access to the system clock so time-dependent
// code can be tested deterministically.
package timeutil

import "time"

// Provider supplies the current time.
type Provider interface {
	// Now returns the current time.
	Now() time.Time
}

// RealProvider is the default Provider backed by the system clock.
type RealProvider struct{}

// Now returns the current time in UTC.
func (RealProvider) Now() time.Time { return time.Now().UTC() }

// Mock is a Provider for tests that returns a controllable time.
type Mock struct{ CurrentTime time.Time }

// Now returns the preset time.
func (m Mock) Now() time.Time { return m.CurrentTime }

// SetNow directly sets the current time to the provided time.
func (m *Mock) SetNow(t time.Time) { m.CurrentTime = t }

// Advance moves the mock time forward by the specified duration.
func (m *Mock) Advance(d time.Duration) { m.CurrentTime = m.CurrentTime.Add(d) }

// Default returns a Provider backed by the real system clock.
func Default() Provider { return RealProvider{} }

// NewMock creates a mock provider preset to the specified time.
func NewMock(t time.Time) *Mock { return &Mock{CurrentTime: t} }

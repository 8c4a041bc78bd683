package clock

import "time"

// Clock abstrae la hora actual para poder fijarla en tests.
type Clock interface {
	Now() time.Time
}

// RealClock usa la hora del sistema.
type RealClock struct{}

// NewRealClock construye el reloj de producción.
func NewRealClock() Clock {
	return &RealClock{}
}

// Now devuelve la hora actual en UTC.
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock reloj manual para tests.
type MockClock struct {
	current time.Time
}

// NewMockClock crea un MockClock que arranca en startTime.
func NewMockClock(startTime time.Time) *MockClock {
	return &MockClock{current: startTime}
}

// Now devuelve la hora fijada.
func (m *MockClock) Now() time.Time {
	return m.current
}

// Set fija la hora actual.
func (m *MockClock) Set(t time.Time) {
	m.current = t
}

// Advance adelanta el reloj d.
func (m *MockClock) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}

package di

import (
	"sync"
	"time"
)

// ColdStartTracker tracks cold start information.
type ColdStartTracker struct {
	ColdStartTime time.Time

	once sync.Once
}

// NewColdStartTracker creates a new cold start tracker.
func NewColdStartTracker() *ColdStartTracker {
	return &ColdStartTracker{ColdStartTime: time.Now()}
}

// GetTimeSinceColdStart returns the time since cold start.
func (t *ColdStartTracker) GetTimeSinceColdStart() time.Duration {
	return time.Since(t.ColdStartTime)
}

// Invoked reports true for the first invocation of the environment only.
func (t *ColdStartTracker) Invoked() bool {
	first := false
	t.once.Do(func() { first = true })
	return first
}

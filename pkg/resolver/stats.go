package resolver

import "sync"

// Stats summarizes a resolution batch for match-rate verification.
type Stats struct {
	// Matched counts cases that reached a date-verified match.
	Matched int

	// Exhausted counts cases where every candidate was tried and none
	// verified. A normal outcome, not a failure.
	Exhausted int

	// Transient counts cases left unresolved this run by retry-exhausted
	// transport failures. Never conflated with NotFound.
	Transient int

	// NotFound counts candidate queries answered 404 by the service.
	NotFound int

	// CandidatesTried counts every candidate query issued across all cases.
	CandidatesTried int
}

// statsCounter is the mutex-guarded accumulator behind Resolver.Stats.
type statsCounter struct {
	mu sync.Mutex
	s  Stats
}

func (c *statsCounter) addMatched()   { c.mu.Lock(); c.s.Matched++; c.mu.Unlock() }
func (c *statsCounter) addExhausted() { c.mu.Lock(); c.s.Exhausted++; c.mu.Unlock() }
func (c *statsCounter) addTransient() { c.mu.Lock(); c.s.Transient++; c.mu.Unlock() }
func (c *statsCounter) addNotFound()  { c.mu.Lock(); c.s.NotFound++; c.mu.Unlock() }
func (c *statsCounter) addCandidate() { c.mu.Lock(); c.s.CandidatesTried++; c.mu.Unlock() }

// snapshot returns a copy of the current counters.
func (c *statsCounter) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

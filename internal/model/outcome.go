package model

// JobOutcome maps each considered Job Identifier to whether it succeeded.
//
// Entries keep the order in which they were first registered, which is the
// manifest order when built by the scheduler. JobOutcome is not safe for
// concurrent use; callers serialize writes.
type JobOutcome struct {
	order   []string
	results map[string]bool
}

// NewJobOutcome creates an outcome with every id registered as succeeded.
//
// Registering up front fixes the iteration order before any worker reports.
func NewJobOutcome(ids []string) *JobOutcome {
	o := &JobOutcome{
		order:   make([]string, 0, len(ids)),
		results: make(map[string]bool, len(ids)),
	}
	for _, id := range ids {
		o.Set(id, true)
	}
	return o
}

// Set records the result for id, registering it if needed.
func (o *JobOutcome) Set(id string, ok bool) {
	if _, exists := o.results[id]; !exists {
		o.order = append(o.order, id)
	}
	o.results[id] = ok
}

// Get returns the result for id and whether id is part of the outcome.
func (o *JobOutcome) Get(id string) (ok, present bool) {
	ok, present = o.results[id]
	return ok, present
}

// Len returns the number of recorded jobs.
func (o *JobOutcome) Len() int {
	return len(o.order)
}

// IDs returns every recorded id in registration order.
func (o *JobOutcome) IDs() []string {
	ids := make([]string, len(o.order))
	copy(ids, o.order)
	return ids
}

// Failed returns the ids recorded as false, in registration order.
func (o *JobOutcome) Failed() []string {
	var failed []string
	for _, id := range o.order {
		if !o.results[id] {
			failed = append(failed, id)
		}
	}
	return failed
}

// Succeeded returns the number of ids recorded as true.
func (o *JobOutcome) Succeeded() int {
	n := 0
	for _, ok := range o.results {
		if ok {
			n++
		}
	}
	return n
}

// AllSucceeded reports whether no recorded job failed.
func (o *JobOutcome) AllSucceeded() bool {
	return len(o.Failed()) == 0
}

// Map returns a copy of the outcome as a plain map.
func (o *JobOutcome) Map() map[string]bool {
	m := make(map[string]bool, len(o.results))
	for id, ok := range o.results {
		m[id] = ok
	}
	return m
}

package state

// ErrorDetail records the most recent failure so the next run can report why
// the previous one stopped.
type ErrorDetail struct {
	Item    string `json:"item"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// Snapshot is the progress record for one stage: which items completed, which
// failed and why, and where the previous run left off. A key never appears in
// both Completed and Failed.
type Snapshot struct {
	Completed    []string          `json:"completed"`
	Failed       map[string]string `json:"failed"`
	LastTouched  string            `json:"last_touched,omitempty"`
	LastError    *ErrorDetail      `json:"last_error,omitempty"`
	TotalPlanned int               `json:"total_planned"`

	completedIndex map[string]struct{}
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Completed:      []string{},
		Failed:         map[string]string{},
		completedIndex: map[string]struct{}{},
	}
}

// IsCompleted reports whether key has been recorded as completed.
func (s *Snapshot) IsCompleted(key string) bool {
	_, ok := s.completedIndex[key]
	return ok
}

// MarkCompleted records key as completed, removes any failure entry for it,
// and clears the last-error detail. Completing an item twice is a no-op for
// the completed set.
func (s *Snapshot) MarkCompleted(key string) {
	if !s.IsCompleted(key) {
		s.Completed = append(s.Completed, key)
		s.completedIndex[key] = struct{}{}
	}
	s.LastTouched = key
	delete(s.Failed, key)
	s.LastError = nil
}

// MarkFailed records the last error for key. The completed set is not
// touched: a previously completed item that fails on a later re-run keeps its
// completion.
func (s *Snapshot) MarkFailed(key, message, trace string) {
	if s.Failed == nil {
		s.Failed = map[string]string{}
	}
	s.Failed[key] = message
	s.LastTouched = key
	s.LastError = &ErrorDetail{Item: key, Message: message, Trace: trace}
}

// normalize rebuilds internal indexes after deserialization and restores the
// completed/failed exclusivity invariant, preferring the completion.
func (s *Snapshot) normalize() {
	if s.Failed == nil {
		s.Failed = map[string]string{}
	}
	deduped := make([]string, 0, len(s.Completed))
	s.completedIndex = make(map[string]struct{}, len(s.Completed))
	for _, key := range s.Completed {
		if key == "" {
			continue
		}
		if _, seen := s.completedIndex[key]; seen {
			continue
		}
		s.completedIndex[key] = struct{}{}
		deduped = append(deduped, key)
		delete(s.Failed, key)
	}
	s.Completed = deduped
}

package pipeline

// State is the lifecycle of one subsystem.
type State string

const (
	StateDisabled     State = "disabled"
	StatePending      State = "pending"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateFailed       State = "failed"
)

// Subsystem is the state of geometry or OCR.
type Subsystem struct {
	State  State  `json:"state"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Status is a point-in-time snapshot of the session.
type Status struct {
	Geometry Subsystem `json:"geometry"`
	OCR      Subsystem `json:"ocr"`

	// Ready is true when every enabled subsystem is ready.
	Ready bool `json:"ready"`

	// LastRun summarizes the most recent successful run, if any.
	LastRun *Summary `json:"last_run,omitempty"`
}

// Status reports the readiness of each subsystem and the last result set.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Geometry: s.geoState,
		OCR:      s.ocrState,
	}
	st.Ready = st.Geometry.State == StateReady &&
		(st.OCR.State == StateReady || st.OCR.State == StateDisabled)
	if s.last != nil {
		sum := s.last.Summary()
		st.LastRun = &sum
	}
	return st
}

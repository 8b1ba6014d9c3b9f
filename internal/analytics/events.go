package analytics

import "time"

type EventType string

const (
	EventSearch      EventType = "search"
	EventZeroResult  EventType = "zero_result"
	EventQueryFailed EventType = "query_failed"
)

// SearchEvent describes the outcome of one query in a run.
type SearchEvent struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"run_id"`
	QueryNo    int       `json:"query_no"`
	Query      string    `json:"query"`
	Terms      []string  `json:"terms"`
	Candidates int       `json:"candidates"`
	Returned   int       `json:"returned"`
	TopDocID   int       `json:"top_doc_id,omitempty"`
	LatencyUs  int64     `json:"latency_us"`
	CacheHit   bool      `json:"cache_hit"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSearchEvent fills Type from the outcome: failed queries carry an error,
// zero-result queries matched no document.
func NewSearchEvent(runID string, queryNo int, query string, terms []string, candidates, returned int, latency time.Duration, cacheHit bool, err error) SearchEvent {
	ev := SearchEvent{
		Type:       EventSearch,
		RunID:      runID,
		QueryNo:    queryNo,
		Query:      query,
		Terms:      terms,
		Candidates: candidates,
		Returned:   returned,
		LatencyUs:  latency.Microseconds(),
		CacheHit:   cacheHit,
		Timestamp:  time.Now().UTC(),
	}
	switch {
	case err != nil:
		ev.Type = EventQueryFailed
		ev.Error = err.Error()
	case returned == 0:
		ev.Type = EventZeroResult
	}
	return ev
}

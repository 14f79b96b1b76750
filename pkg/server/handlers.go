package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"mercator-hq/svnwatch/pkg/svn"
)

// pollResponse is the body of a successful POST /poll.
type pollResponse struct {
	CycleID           string        `json:"cycle_id"`
	Prefix            string        `json:"prefix"`
	FetchedEntries    int           `json:"fetched_entries"`
	NewEntries        int           `json:"new_entries"`
	PreviousWatermark svn.Revision  `json:"previous_watermark"`
	Watermark         svn.Revision  `json:"watermark"`
	FirstPoll         bool          `json:"first_poll"`
	Gap               bool          `json:"gap"`
	SinkFailures      int           `json:"sink_failures"`
	DurationMS        int64         `json:"duration_ms"`
	Changes           []*svn.Change `json:"changes"`
}

func newPollResponse(r *svn.CycleReport) pollResponse {
	changes := r.Changes
	if changes == nil {
		changes = []*svn.Change{}
	}
	return pollResponse{
		CycleID:           r.CycleID,
		Prefix:            r.Prefix,
		FetchedEntries:    r.FetchedEntries,
		NewEntries:        r.NewEntries,
		PreviousWatermark: r.PreviousWatermark,
		Watermark:         r.Watermark,
		FirstPoll:         r.FirstPoll,
		Gap:               r.Gap,
		SinkFailures:      r.SinkFailures,
		DurationMS:        r.Duration.Milliseconds(),
		Changes:           changes,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// handlePoll runs a cycle on demand.
//
//	202 cycle completed, body is the cycle report
//	409 another cycle is in flight
//	429 manual triggers are throttled
//	502 the cycle aborted talking to the repository
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", retryAfter(s.limiter.Limit()))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "manual poll rate exceeded"})
		return
	}

	report, err := s.opts.Trigger(r.Context(), "manual")
	if err != nil {
		var cycleErr *svn.CycleError
		switch {
		case errors.Is(err, svn.ErrCycleInFlight):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		case errors.As(err, &cycleErr):
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Stage: string(cycleErr.Stage)})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, newPollResponse(report))
}

// statusResponse is the body of GET /status.
type statusResponse struct {
	Cycles              int64        `json:"cycles"`
	Aborted             int64        `json:"aborted"`
	DroppedTriggers     int64        `json:"dropped_triggers"`
	ChangesSubmitted    int64        `json:"changes_submitted"`
	SinkFailures        int64        `json:"sink_failures"`
	ConsecutiveFailures int64        `json:"consecutive_failures"`
	LastSuccess         *time.Time   `json:"last_success,omitempty"`
	LastError           string       `json:"last_error,omitempty"`
	LastRevision        svn.Revision `json:"last_revision"`
	Stage               svn.Stage    `json:"stage"`
	Scheduled           bool         `json:"scheduled"`
	NextPoll            *time.Time   `json:"next_poll,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	stats := s.opts.Stats()
	resp := statusResponse{
		Cycles:              stats.Cycles,
		Aborted:             stats.Aborted,
		DroppedTriggers:     stats.DroppedTriggers,
		ChangesSubmitted:    stats.ChangesSubmitted,
		SinkFailures:        stats.SinkFailures,
		ConsecutiveFailures: stats.ConsecutiveFailures,
		LastError:           stats.LastError,
		LastRevision:        stats.LastRevision,
		Stage:               stats.Stage,
	}
	if !stats.LastSuccess.IsZero() {
		resp.LastSuccess = &stats.LastSuccess
	}
	if s.opts.Schedule != nil {
		resp.Scheduled = s.opts.Schedule.IsRunning()
		resp.NextPoll = s.opts.Schedule.NextRun()
	}
	writeJSON(w, http.StatusOK, resp)
}

// retryAfter is the time until the limiter refills one token, in whole
// seconds.
func retryAfter(limit rate.Limit) string {
	if limit <= 0 {
		return "60"
	}
	seconds := int(1/float64(limit) + 0.999)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

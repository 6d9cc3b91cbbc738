package web

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/errors"
	"github.com/robinvdvleuten/beancount-forecast/formatter"
	"github.com/robinvdvleuten/beancount-forecast/ledger"
)

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

type ForecastResponse struct {
	Horizon     string             `json:"horizon,omitempty"`
	Ledger      string             `json:"ledger"`
	Derived     int                `json:"derived"`
	Opened      []string           `json:"opened"`
	Diagnostics []errors.ErrorJSON `json:"diagnostics"`
}

type ScheduleResponse struct {
	Horizon     string              `json:"horizon,omitempty"`
	Occurrences []ledger.Occurrence `json:"occurrences"`
	Diagnostics []errors.ErrorJSON  `json:"diagnostics"`
}

type DiagnosticsResponse struct {
	Diagnostics []errors.ErrorJSON `json:"diagnostics"`
}

type FilesResponse struct {
	Root     string   `json:"root"`
	Includes []string `json:"includes"`
}

type StatusResponse struct {
	Version   string        `json:"version,omitempty"`
	CommitSHA string        `json:"commit,omitempty"`
	Files     FilesResponse `json:"files"`
	LoadedAt  time.Time     `json:"loaded_at"`
	Watching  bool          `json:"watching"`
}

// overridesFromQuery reads the forecast settings of a request:
//
//	/api/forecast?horizon=12m&flag=!&tag=plan&auto_accounts=true
func overridesFromQuery(r *http.Request) (ledger.Overrides, error) {
	q := r.URL.Query()
	overrides := ledger.Overrides{
		Horizon: q.Get("horizon"),
		Flag:    q.Get("flag"),
		Tag:     q.Get("tag"),
	}
	if v := q.Get("auto_accounts"); v != "" {
		auto, err := strconv.ParseBool(v)
		if err != nil {
			return overrides, stdErrors.New("auto_accounts must be a boolean")
		}
		overrides.AutoAccounts = auto
	}
	return overrides, nil
}

// process runs a forecast pass over the loaded ledger with the request's
// overrides. It writes the error response itself and returns nil on failure.
func (s *Server) process(w http.ResponseWriter, r *http.Request) (*ledger.Result, *ast.AST) {
	overrides, err := overridesFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, nil
	}

	s.mu.RLock()
	tree := s.tree
	s.mu.RUnlock()

	if tree == nil {
		writeError(w, http.StatusServiceUnavailable, stdErrors.New("ledger is not loaded"))
		return nil, nil
	}

	result, err := s.ledger.Process(r.Context(), tree, overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, nil
	}
	return result, tree
}

func horizonString(result *ledger.Result) string {
	if result.Horizon.IsZero() {
		return ""
	}
	return result.Horizon.Format(ast.DateFormat)
}

func (s *Server) handleGetForecast(w http.ResponseWriter, r *http.Request) {
	result, tree := s.process(w, r)
	if result == nil {
		return
	}

	f := formatter.New()
	var buf bytes.Buffer
	if err := f.FormatHeader(tree, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	if err := f.FormatDirectives(r.Context(), result.Entries, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if r.URL.Query().Get("format") == "beancount" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
		return
	}

	opened := make([]string, 0, len(result.Opened))
	for _, open := range result.Opened {
		opened = append(opened, string(open.Account))
	}

	writeJSONResponse(w, ForecastResponse{
		Horizon:     horizonString(result),
		Ledger:      buf.String(),
		Derived:     len(result.Derived),
		Opened:      opened,
		Diagnostics: errors.NewJSONFormatter().FormatAllToSlice(result.Errors()),
	})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	result, _ := s.process(w, r)
	if result == nil {
		return
	}

	writeJSONResponse(w, ScheduleResponse{
		Horizon:     horizonString(result),
		Occurrences: result.Schedule(),
		Diagnostics: errors.NewJSONFormatter().FormatAllToSlice(result.Errors()),
	})
}

// handleGetDiagnostics reports the last reload failure, or the problems of a
// forecast pass when the ledger loaded.
func (s *Server) handleGetDiagnostics(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loadErr := s.loadErr
	s.mu.RUnlock()

	jf := errors.NewJSONFormatter()
	if loadErr != nil {
		writeJSONResponse(w, DiagnosticsResponse{Diagnostics: jf.FormatAllToSlice([]error{loadErr})})
		return
	}

	result, _ := s.process(w, r)
	if result == nil {
		return
	}

	writeJSONResponse(w, DiagnosticsResponse{Diagnostics: jf.FormatAllToSlice(result.Errors())})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	includes := s.includeFiles
	if includes == nil {
		includes = []string{}
	}

	writeJSONResponse(w, StatusResponse{
		Version:   s.Version,
		CommitSHA: s.CommitSHA,
		Files:     FilesResponse{Root: s.rootFile, Includes: includes},
		LoadedAt:  s.loadedAt,
		Watching:  s.WatchEnabled,
	})
}

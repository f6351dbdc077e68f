// Package web serves a localhost-only single-user API for uploading hours
// CSV files and downloading monthly reports; it intentionally has no
// auth/CSRF protection in this mode.
package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"hourbook/codec"
	"hourbook/hours"
	"hourbook/importer"
	"hourbook/report"
	"hourbook/storage"
)

type Server struct {
	store   *storage.Store
	service *importer.Service
	mux     *http.ServeMux
}

func NewServer(store *storage.Store, service *importer.Service) *Server {
	s := &Server{store: store, service: service, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/hours/upload", s.handleUpload)
	s.mux.HandleFunc("GET /api/reports/coder/{username}/{year}/{month}", s.handleCoderMonthly)
	s.mux.HandleFunc("GET /api/reports/project/{name}/{year}/{month}", s.handleProjectMonthly)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type uploadEntryView struct {
	Line string `json:"row"`
}

type uploadRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type uploadResponse struct {
	RowsRead int               `json:"rowsRead"`
	Created  []uploadEntryView `json:"created,omitempty"`
	Updated  []uploadEntryView `json:"updated,omitempty"`
	Pending  []uploadEntryView `json:"pending,omitempty"`
	Existing []uploadEntryView `json:"existing,omitempty"`
	Failed   []uploadRowError  `json:"failed,omitempty"`
}

// handleUpload imports (or, with ?preview=1, only validates) a multipart CSV
// upload. Form fields: file, username, optional delimiter and skip_failed.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("parse upload form: %w", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	coder, err := hours.ResolveCoder(s.store, r.FormValue("username"))
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, err)
		return
	}

	opts := importer.RunOptions{
		Coder:      coder,
		Preview:    r.URL.Query().Get("preview") == "1",
		SkipFailed: r.FormValue("skip_failed") == "1",
	}
	if delimiter := r.FormValue("delimiter"); delimiter != "" {
		opts.Delimiter = []rune(delimiter)[0]
	}

	result, err := s.service.Run(file, opts)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, s.uploadResponse(result))
}

func (s *Server) uploadResponse(result *importer.Result) uploadResponse {
	views := func(entries []*hours.Entry) []uploadEntryView {
		out := make([]uploadEntryView, 0, len(entries))
		for _, entry := range entries {
			line, err := s.service.Codec.Serialize(entry, false)
			if err != nil {
				line = entry.String()
			}
			out = append(out, uploadEntryView{Line: line})
		}
		return out
	}

	resp := uploadResponse{
		RowsRead: result.RowsRead,
		Created:  views(result.Created),
		Updated:  views(result.Updated),
		Pending:  views(result.Pending),
		Existing: views(result.Existing),
	}
	for _, failure := range result.Failed {
		resp.Failed = append(resp.Failed, uploadRowError{Line: failure.Line, Error: failure.Err.Error()})
	}
	return resp
}

// handleCoderMonthly streams one coder's month as a semicolon-delimited CSV
// attachment.
func (s *Server) handleCoderMonthly(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	coder, err := hours.ResolveCoder(s.store, username)
	if err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	monthly, err := report.BuildCoderMonthly(s.store, coder, year, month)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("%d-%02d-hours-%s.csv", year, month, username)
	s.writeEntriesCSV(w, filename, monthly.Entries, true)
}

// handleProjectMonthly streams one project's month; rows keep the coder
// column so the customer sees who logged what.
func (s *Server) handleProjectMonthly(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	project, err := s.store.FindProjectByName(name)
	if err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	monthly, err := report.BuildProjectMonthly(s.store, project.ID, project.Name, year, month)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("%d-%02d-hours-%s.csv", year, month, project.Name)
	s.writeEntriesCSV(w, filename, monthly.Entries, false)
}

func (s *Server) writeEntriesCSV(w http.ResponseWriter, filename string, entries []*hours.Entry, omitCoder bool) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(w)
	writer.Comma = codec.ExportDelimiter
	for _, entry := range entries {
		if err := writer.Write(s.service.Codec.FieldValues(entry, omitCoder)); err != nil {
			return
		}
	}
	writer.Flush()
}

func parseYearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid year: %w", err))
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid month"))
		return 0, 0, false
	}
	return year, month, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

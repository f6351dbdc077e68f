package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"hourbook/codec"
	"hourbook/importer"
	"hourbook/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "hourbook_test.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	alice, err := store.AddUser("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	team, err := store.AddTeam("core")
	if err != nil {
		t.Fatalf("add team: %v", err)
	}
	acme, err := store.AddProject("Acme")
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	if err := store.AddUserToTeam(alice.ID, team.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := store.GrantTeamProject(team.ID, acme.ID); err != nil {
		t.Fatalf("grant project: %v", err)
	}

	service := &importer.Service{
		Codec:    codec.Default(),
		Resolver: codec.Resolver{Users: store, Projects: store, Tracker: store},
		Store:    store,
	}
	return NewServer(store, service), store
}

func uploadRequest(t *testing.T, target, username, csvBody string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("username", username); err != nil {
		t.Fatalf("write username field: %v", err)
	}
	part, err := form.CreateFormFile("file", "hours.csv")
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write([]byte(csvBody)); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func decodeUpload(t *testing.T, rec *httptest.ResponseRecorder) uploadResponse {
	t.Helper()
	var resp uploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestUploadImportsRows(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t)
	body := "Acme,2024-03-01,09:00,17:00,8.00,dev,,,\n"

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, uploadRequest(t, "/api/hours/upload", "alice", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeUpload(t, rec)
	if resp.RowsRead != 1 || len(resp.Created) != 1 {
		t.Fatalf("response = %+v", resp)
	}

	entries, err := store.ListEntries()
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("stored entries = %d, want 1", len(entries))
	}
}

func TestUploadPreviewWritesNothing(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t)
	body := "Acme,2024-03-01,,,1.00,dev,,,\n"

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, uploadRequest(t, "/api/hours/upload?preview=1", "alice", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeUpload(t, rec)
	if len(resp.Pending) != 1 || len(resp.Created) != 0 {
		t.Fatalf("response = %+v", resp)
	}

	entries, err := store.ListEntries()
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("preview must not write, got %d entries", len(entries))
	}
}

func TestUploadReportsRowFailures(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	body := "Acme,not-a-date,,,1.00,dev,,,\n"

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, uploadRequest(t, "/api/hours/upload", "alice", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeUpload(t, rec)
	if len(resp.Failed) != 1 || resp.Failed[0].Line != 1 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestUploadUnknownUser(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, uploadRequest(t, "/api/hours/upload", "nobody", "Acme,2024-03-01,,,1.00,dev,,,\n"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestCoderMonthlyReport(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, uploadRequest(t, "/api/hours/upload", "alice", "Acme,2024-03-01,09:00,17:00,8.00,dev,,,\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed upload: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/coder/alice/2024/3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "2024-03-hours-alice.csv") {
		t.Errorf("content disposition = %q", got)
	}

	line := strings.TrimSpace(rec.Body.String())
	if strings.HasPrefix(line, "alice;") {
		t.Errorf("coder report must omit the coder column: %q", line)
	}
	if !strings.HasPrefix(line, "Acme;2024-03-01;") {
		t.Errorf("report line = %q", line)
	}
}

func TestProjectMonthlyReport(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, uploadRequest(t, "/api/hours/upload", "alice", "Acme,2024-03-01,,,2.00,dev,,,\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed upload: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/project/Acme/2024/3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	line := strings.TrimSpace(rec.Body.String())
	// Project reports keep the coder column.
	if !strings.HasPrefix(line, "alice;Acme;") {
		t.Errorf("report line = %q", line)
	}
}

func TestReportRejectsBadMonth(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/coder/alice/2024/13", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

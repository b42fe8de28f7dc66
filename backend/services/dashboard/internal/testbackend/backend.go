// Package testbackend runs an in-memory fake of the equipment API for tests.
//
// It speaks the same routes and payloads as the real service: basic or bearer auth,
// CSV uploads with the five required columns, last-five dataset retention, summaries with
// ordered type distributions and a small PDF payload. Routes can be made to fail or to
// block so controllers can be exercised against partial failures and reordered responses.
package testbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"equipviz/backend/services/dashboard/internal/models"
)

// Route names accepted by Fail, Before and Requests.
const (
	RouteList      = "list"
	RouteSummary   = "summary"
	RouteEquipment = "equipment"
	RouteUpload    = "upload"
	RoutePDF       = "pdf"
	RouteToken     = "token"
)

const retainedDatasets = 5

type dataset struct {
	meta      models.Dataset
	equipment []models.EquipmentRecord
}

// Backend is a running fake equipment API.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	nextID      int64
	nextEquipID int64
	datasets    []*dataset
	failures    map[string]int
	hooks       map[string]func(datasetID int64)
	requests    map[string]int

	username string
	password string
	tokens   *tokenIssuer
}

// Option configures a Backend.
type Option func(*Backend)

// WithBasicAuth requires HTTP basic credentials on every data route.
func WithBasicAuth(username, password string) Option {
	return func(b *Backend) {
		b.username = username
		b.password = password
	}
}

// WithTokenAuth enables POST /token/ and requires bearer tokens signed with secret.
func WithTokenAuth(username, password, secret string, expiresIn time.Duration) Option {
	return func(b *Backend) {
		b.username = username
		b.password = password
		b.tokens = newTokenIssuer(secret, expiresIn)
	}
}

// New starts a backend that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Backend {
	t.Helper()

	b := &Backend{
		nextID:      1,
		nextEquipID: 1,
		failures:    make(map[string]int),
		hooks:       make(map[string]func(int64)),
		requests:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/datasets/", b.handleDatasets)
	mux.HandleFunc("/upload/", b.handleUpload)
	mux.HandleFunc("/token/", b.handleToken)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Fail makes route answer with status until cleared with status 0.
func (b *Backend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

// Before registers fn to run (outside the lock) before route is served.
func (b *Backend) Before(route string, fn func(datasetID int64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[route] = fn
}

// Requests reports how many times route was hit.
func (b *Backend) Requests(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[route]
}

// Seed stores a dataset parsed from csvBody as if it had been uploaded.
func (b *Backend) Seed(t testing.TB, name, csvBody string) models.Dataset {
	t.Helper()
	records, err := parseEquipmentCSV(strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return b.store(name, name, records)
}

func (b *Backend) store(name, fileName string, records []models.EquipmentRecord) models.Dataset {
	b.mu.Lock()
	defer b.mu.Unlock()

	ds := &dataset{
		meta: models.Dataset{
			ID:         b.nextID,
			Name:       name,
			TotalCount: len(records),
			UploadedAt: time.Now().UTC(),
			FileName:   fileName,
		},
	}
	b.nextID++
	for _, rec := range records {
		rec.ID = b.nextEquipID
		b.nextEquipID++
		ds.equipment = append(ds.equipment, rec)
	}

	b.datasets = append([]*dataset{ds}, b.datasets...)
	if len(b.datasets) > retainedDatasets {
		b.datasets = b.datasets[:retainedDatasets]
	}
	return ds.meta
}

func (b *Backend) enter(route string, datasetID int64) (int, bool) {
	b.mu.Lock()
	b.requests[route]++
	hook := b.hooks[route]
	status, failing := b.failures[route]
	b.mu.Unlock()

	if hook != nil {
		hook(datasetID)
	}
	return status, failing
}

func (b *Backend) authorized(r *http.Request) bool {
	if b.username == "" {
		return true
	}
	if b.tokens != nil {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return false
		}
		_, err := b.tokens.validate(strings.TrimSpace(parts[1]))
		return err == nil
	}
	user, pass, ok := r.BasicAuth()
	return ok && user == b.username && pass == b.password
}

func (b *Backend) handleDatasets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/datasets/"), "/")
	route := RouteList
	var id int64
	if rest != "" {
		parts := strings.Split(rest, "/")
		if len(parts) != 2 {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		parsed, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		id = parsed
		switch parts[1] {
		case "summary":
			route = RouteSummary
		case "equipment":
			route = RouteEquipment
		case "pdf":
			route = RoutePDF
		default:
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
	}

	if status, failing := b.enter(route, id); failing {
		writeError(w, status, fmt.Sprintf("%s failed", route))
		return
	}
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	if route == RouteList {
		b.mu.Lock()
		list := make([]models.Dataset, 0, len(b.datasets))
		for _, ds := range b.datasets {
			list = append(list, ds.meta)
		}
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, list)
		return
	}

	b.mu.Lock()
	var found *dataset
	for _, ds := range b.datasets {
		if ds.meta.ID == id {
			found = ds
			break
		}
	}
	var (
		summary   models.Summary
		equipment []models.EquipmentRecord
	)
	if found != nil {
		summary = summarize(found)
		equipment = append([]models.EquipmentRecord{}, found.equipment...)
	}
	b.mu.Unlock()

	if found == nil {
		writeError(w, http.StatusNotFound, "Dataset not found")
		return
	}

	switch route {
	case RouteSummary:
		writeJSON(w, http.StatusOK, summary)
	case RouteEquipment:
		writeJSON(w, http.StatusOK, equipment)
	case RoutePDF:
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="equipment_report_%d.pdf"`, id))
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "%%PDF-1.4\n%% Equipment Dataset Report: %s\n%%%%EOF\n", summary.DatasetName)
	}
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status, failing := b.enter(RouteUpload, 0); failing {
		writeError(w, status, "upload failed")
		return
	}
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".csv") {
		writeError(w, http.StatusBadRequest, "File must be a CSV")
		return
	}

	records, err := parseEquipmentCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = "Dataset " + time.Now().UTC().Format("2006-01-02 15:04")
	}
	writeJSON(w, http.StatusCreated, b.store(name, header.Filename, records))
}

func (b *Backend) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status, failing := b.enter(RouteToken, 0); failing {
		writeError(w, status, "token failed")
		return
	}
	if b.tokens == nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if creds.Username != b.username || creds.Password != b.password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	token, err := b.tokens.issue(creds.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": token})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

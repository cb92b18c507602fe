// Package testutil provides an in-process fake of the gBizINFO API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
)

// TokenHeader is the header gBizINFO reads the API token from.
const TokenHeader = "X-hojinInfo-api-token"

// MockResponse defines a canned response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// FakeGBiz serves the search and detail endpoints from in-memory data.
type FakeGBiz struct {
	server   *httptest.Server
	token    string
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	lists      map[string][]hojin.Record
	details    map[string]hojin.Detail
	failDetail map[string]int

	// Tracking
	RequestCount      int
	DetailRequests    []string
	SearchQueries     []url.Values
	LastRequestHeader http.Header
}

// NewFakeGBiz starts a fake server that requires token on every request.
// An empty token disables the check.
func NewFakeGBiz(token string) *FakeGBiz {
	f := &FakeGBiz{
		token:      token,
		handlers:   make(map[string]http.HandlerFunc),
		lists:      make(map[string][]hojin.Record),
		details:    make(map[string]hojin.Detail),
		failDetail: make(map[string]int),
	}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.RequestCount++
		f.LastRequestHeader = r.Header.Clone()
		handler, exists := f.handlers[r.URL.Path]
		f.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		if f.token != "" && r.Header.Get(TokenHeader) != f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}

		switch {
		case r.URL.Path == "/v1/hojin":
			f.search(w, r)
		case strings.HasPrefix(r.URL.Path, "/v1/hojin/"):
			f.detail(w, strings.TrimPrefix(r.URL.Path, "/v1/hojin/"))
		default:
			http.NotFound(w, r)
		}
	}))

	return f
}

// URL returns the base URL to configure the client with.
func (f *FakeGBiz) URL() string {
	return f.server.URL
}

// Close shuts down the server.
func (f *FakeGBiz) Close() {
	f.server.Close()
}

// Reset clears the tracking counters but keeps the data.
func (f *FakeGBiz) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RequestCount = 0
	f.DetailRequests = nil
	f.SearchQueries = nil
	f.LastRequestHeader = nil
}

// SetHandler overrides the handler for an exact path.
func (f *FakeGBiz) SetHandler(path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = handler
}

// SetResponse serves a fixed response on an exact path.
func (f *FakeGBiz) SetResponse(path string, resp MockResponse) {
	f.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// AddCorporations appends list records for a prefecture and registers a
// matching detail for each of them.
func (f *FakeGBiz) AddCorporations(prefecture string, records ...hojin.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[prefecture] = append(f.lists[prefecture], records...)
	for _, r := range records {
		if _, ok := f.details[r.CorporateNumber]; !ok {
			f.details[r.CorporateNumber] = DetailFor(r, prefecture)
		}
	}
}

// SetDetail registers or replaces a detail record.
func (f *FakeGBiz) SetDetail(d hojin.Detail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[d.CorporateNumber] = d
}

// FailDetail makes the detail endpoint answer status for number.
func (f *FakeGBiz) FailDetail(number string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDetail[number] = status
}

// GetRequestCount returns the number of requests served.
func (f *FakeGBiz) GetRequestCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.RequestCount
}

// GetDetailRequests returns the corporate numbers requested, in order.
func (f *FakeGBiz) GetDetailRequests() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.DetailRequests...)
}

// GetSearchQueries returns the query strings of every search request.
func (f *FakeGBiz) GetSearchQueries() []url.Values {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]url.Values(nil), f.SearchQueries...)
}

func (f *FakeGBiz) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	f.SearchQueries = append(f.SearchQueries, q)
	records := f.lists[q.Get("prefecture")]
	f.mu.Unlock()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 || limit > hojin.MaxPageSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid limit"})
		return
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid page"})
		return
	}

	start := (page - 1) * limit
	if start >= len(records) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	end := min(start+limit, len(records))

	writeJSON(w, http.StatusOK, map[string]any{"hojin-infos": records[start:end]})
}

func (f *FakeGBiz) detail(w http.ResponseWriter, number string) {
	f.mu.Lock()
	f.DetailRequests = append(f.DetailRequests, number)
	status, failing := f.failDetail[number]
	d, ok := f.details[number]
	f.mu.Unlock()

	if failing {
		writeJSON(w, status, map[string]string{"message": fmt.Sprintf("simulated failure for %s", number)})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"hojin-infos": []hojin.Detail{d}})
}

// DetailFor builds a plausible detail record for a list record.
func DetailFor(r hojin.Record, prefecture string) hojin.Detail {
	return hojin.Detail{
		CorporateNumber:     r.CorporateNumber,
		Name:                r.Name,
		DateOfEstablishment: "2001-04-01",
		EmployeeNumber:      "12",
		CapitalStock:        "10000000",
		PrefectureCode:      prefecture,
		CityCode:            "101",
		PostalCode:          "1000001",
		Location:            "東京都千代田区千代田1-1",
		CompanyURL:          "https://example.co.jp",
		BusinessSummary:     "ソフトウェア開発",
	}
}

// Corporations generates n list records with sequential 13-digit numbers.
func Corporations(base int64, n int) []hojin.Record {
	records := make([]hojin.Record, 0, n)
	for i := 0; i < n; i++ {
		num := base + int64(i)
		records = append(records, hojin.Record{
			CorporateNumber: fmt.Sprintf("%013d", num),
			Name:            fmt.Sprintf("テスト%d株式会社", num%1000),
		})
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

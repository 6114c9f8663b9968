package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"spendwise/internal/ingest"
	"spendwise/internal/services"
	"spendwise/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := memory.New()
	pipeline := ingest.New(st, nil)
	queries := services.NewQueryService(st)
	srv := NewServer(":0", pipeline, queries, t.TempDir(), 5*1024*1024)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func multipartBody(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, srv *Server, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", "upload.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func doGet(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestUploadThenQuery(t *testing.T) {
	srv := newTestServer(t)

	rr := doUpload(t, srv, "Date,Amount,Category\n2024-01-15,100,Food\n01/20/2024,50,Food\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var uploadResp map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &uploadResp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if uploadResp["imported"] != 2 {
		t.Fatalf("imported = %d", uploadResp["imported"])
	}

	rr = doGet(srv, "/transactions")
	if rr.Code != http.StatusOK {
		t.Fatalf("transactions status = %d", rr.Code)
	}
	var txs []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions = %d", len(txs))
	}
	if txs[0]["Amount"] != float64(100) {
		t.Fatalf("first amount = %v", txs[0]["Amount"])
	}

	rr = doGet(srv, "/insights")
	if rr.Code != http.StatusOK {
		t.Fatalf("insights status = %d", rr.Code)
	}
	var snap struct {
		TotalSpent        float64            `json:"totalSpent"`
		MonthlyTotals     map[string]float64 `json:"monthlyTotals"`
		CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode insights: %v", err)
	}
	if snap.TotalSpent != 150 {
		t.Fatalf("totalSpent = %v", snap.TotalSpent)
	}
	if snap.MonthlyTotals["2024-01"] != 150 {
		t.Fatalf("monthlyTotals = %v", snap.MonthlyTotals)
	}
	if snap.CategoryBreakdown["Food"] != 150 {
		t.Fatalf("categoryBreakdown = %v", snap.CategoryBreakdown)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No file uploaded.") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestUploadRejectionLeavesDatasetUntouched(t *testing.T) {
	srv := newTestServer(t)

	if rr := doUpload(t, srv, "Amount\n100\n"); rr.Code != http.StatusOK {
		t.Fatalf("seed upload failed: %d", rr.Code)
	}
	before := doGet(srv, "/transactions").Body.String()

	rr := doUpload(t, srv, "Date,Amount\n\"2024-01-15,100\nbroken\"extra\",\n")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad upload status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Errors []ingest.RowError `json:"errors"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if len(resp.Errors) == 0 {
		t.Fatalf("expected row errors in response")
	}

	after := doGet(srv, "/transactions").Body.String()
	if before != after {
		t.Fatalf("rejected upload changed visible state:\nbefore: %s\nafter: %s", before, after)
	}
}

func TestTransactionsBeforeAnyUpload(t *testing.T) {
	srv := newTestServer(t)

	rr := doGet(srv, "/transactions")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("body = %q, want empty array", rr.Body.String())
	}
}

func TestInsightsBeforeAnyUpload(t *testing.T) {
	srv := newTestServer(t)

	rr := doGet(srv, "/insights")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	var snap struct {
		TotalSpent float64 `json:"totalSpent"`
		Message    string  `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.TotalSpent != 0 || snap.Message == "" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestUploadNonAggregableRowStillStored(t *testing.T) {
	srv := newTestServer(t)

	rr := doUpload(t, srv, "Amount\nabc\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rr.Code)
	}
	var uploadResp map[string]int
	json.Unmarshal(rr.Body.Bytes(), &uploadResp)
	if uploadResp["imported"] != 1 {
		t.Fatalf("imported = %d", uploadResp["imported"])
	}

	var snap struct {
		TotalSpent    float64            `json:"totalSpent"`
		MonthlyTotals map[string]float64 `json:"monthlyTotals"`
	}
	rr = doGet(srv, "/insights")
	if rr.Code != http.StatusOK {
		t.Fatalf("insights status = %d", rr.Code)
	}
	json.Unmarshal(rr.Body.Bytes(), &snap)
	if snap.TotalSpent != 0 || len(snap.MonthlyTotals) != 0 {
		t.Fatalf("non-numeric amount contributed to aggregates: %+v", snap)
	}

	rr = doGet(srv, "/transactions")
	var txs []map[string]any
	json.Unmarshal(rr.Body.Bytes(), &txs)
	if len(txs) != 1 {
		t.Fatalf("record should still be listed, got %d", len(txs))
	}
}

func TestUploadSpoolCleanup(t *testing.T) {
	st := memory.New()
	uploadDir := t.TempDir()
	srv := NewServer(":0", ingest.New(st, nil), services.NewQueryService(st), uploadDir, 5*1024*1024)
	defer srv.rateLimiter.stop()

	if rr := doUpload(t, srv, "Amount\n1\n"); rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rr.Code)
	}
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp upload left behind: %v", entries)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /upload status = %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/transactions", nil)
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /transactions status = %d", rr.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	if rr := doGet(srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rr.Code)
	}
	if rr := doGet(srv, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rr.Code)
	}
}

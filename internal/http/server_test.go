package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Josehuhu/financeiro/internal/auth"
	"github.com/Josehuhu/financeiro/internal/history"
	"github.com/Josehuhu/financeiro/internal/ledger"
	"github.com/Josehuhu/financeiro/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	kv := storage.NewMemoryKV()
	store := storage.NewLedgerStore(kv)
	hist := history.NewStore(kv)
	svc := ledger.NewService(store, hist, nil)
	srv := NewServer(":0", svc, hist)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

// doRequest performs an authenticated request against the server handler.
func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(auth.EmailHeader, "maria@example.com")
	req.Header.Set(auth.NameHeader, "Maria")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rr.Body.String())
	}
	return env
}

// futureDate returns a date safely in a future month, so every scheduled
// installment survives the current-month cutoff.
func futureDate(monthsAhead int) string {
	return time.Now().AddDate(0, monthsAhead, 0).Format("2006-01-02")
}

func draftJSON(name string, totalCents int64, count int, start string) string {
	return fmt.Sprintf(`{
		"name": %q,
		"type": "EXPENSE",
		"totalValue": %d.%02d,
		"installmentCount": %d,
		"startDate": %q
	}`, name, totalCents/100, totalCents%100, count, start)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestCreateTransactionFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Notebook", 100000, 3, futureDate(1)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (body: %s)", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatal("expected success=true")
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/transactions", "")
	env = decodeEnvelope(t, rr)
	txns, ok := env.Data.([]any)
	if !ok || len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %#v", env.Data)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/installments", "")
	env = decodeEnvelope(t, rr)
	insts, ok := env.Data.([]any)
	if !ok || len(insts) != 3 {
		t.Fatalf("expected 3 installments, got %#v", env.Data)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	// Name too short and zero value.
	body := draftJSON("ab", 0, 3, futureDate(1))
	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body: %s)", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Error == nil || len(env.Error.Fields) == 0 {
		t.Error("expected field-level validation errors")
	}
}

func TestCreateTransactionUnauthenticated(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(draftJSON("Notebook", 100000, 3, futureDate(1))))
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestCreateTransactionBadBody(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCreateTransactionUnknownField(t *testing.T) {
	srv := newTestServer(t)

	body := fmt.Sprintf(`{
		"name": "Notebook",
		"type": "EXPENSE",
		"totalValue": 600.00,
		"installmentCount": 3,
		"startDate": %q,
		"bogus": true
	}`, futureDate(1))
	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown field", rr.Code)
	}
}

func TestRateLimitedResponseKeepsSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	// httptest requests arrive from 192.0.2.1; exhaust its budget first.
	srv.rateLimiter.mu.Lock()
	srv.rateLimiter.clients["192.0.2.1"] = &clientInfo{
		lastRequest: time.Now(),
		requests:    maxRequestsPerMinute,
	}
	srv.rateLimiter.mu.Unlock()

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Sofa", 60000, 2, futureDate(1)))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff on rate-limited response", got)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}

func TestPayInstallment(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Sofa", 60000, 2, futureDate(1)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	data := env.Data.(map[string]any)
	insts := data["installments"].([]any)
	first := insts[0].(map[string]any)
	firstID := first["id"].(string)

	rr = doRequest(t, srv, http.MethodPost, "/api/installments/"+firstID+"/pay", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("pay status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	env = decodeEnvelope(t, rr)
	paid := env.Data.(map[string]any)["paid"].(map[string]any)
	if paid["paid"] != true {
		t.Error("expected installment marked paid")
	}
	if paid["validatedByName"] != "Maria" {
		t.Errorf("validatedByName = %v, want Maria", paid["validatedByName"])
	}
}

func TestPayInstallmentNotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/installments/missing-1/pay", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestDeleteTransactionCascades(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Sofa", 60000, 2, futureDate(1)))
	env := decodeEnvelope(t, rr)
	txn := env.Data.(map[string]any)["transaction"].(map[string]any)
	id := txn["id"].(string)

	rr = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/installments", "")
	env = decodeEnvelope(t, rr)
	if insts, _ := env.Data.([]any); len(insts) != 0 {
		t.Errorf("expected 0 installments after delete, got %d", len(insts))
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Sofa", 60000, 2, futureDate(1)))

	rr := doRequest(t, srv, http.MethodGet, "/api/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	summary := env.Data.(map[string]any)
	if summary["pendingExpense"].(float64) != 600.00 {
		t.Errorf("pendingExpense = %v, want 600", summary["pendingExpense"])
	}
}

func TestSummaryCacheInvalidatedOnWrite(t *testing.T) {
	srv := newTestServer(t)

	// Prime the cache with an empty summary.
	doRequest(t, srv, http.MethodGet, "/api/summary", "")

	doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Sofa", 60000, 2, futureDate(1)))

	rr := doRequest(t, srv, http.MethodGet, "/api/summary", "")
	env := decodeEnvelope(t, rr)
	summary := env.Data.(map[string]any)
	if summary["pendingExpense"].(float64) != 600.00 {
		t.Errorf("pendingExpense after write = %v, want 600 (stale cache?)", summary["pendingExpense"])
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", draftJSON("Sofa", 60000, 2, futureDate(1)))

	rr := doRequest(t, srv, http.MethodGet, "/api/history", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history status = %d", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	months, _ := env.Data.([]any)
	if len(months) == 0 {
		t.Fatal("expected at least one month of history")
	}

	now := time.Now()
	rr = doRequest(t, srv, http.MethodGet,
		fmt.Sprintf("/api/history/%d/%d", now.Year(), int(now.Month())), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history month status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/history/2025/13", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid month status = %d, want 400", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/history", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("clear history status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/history", "")
	env = decodeEnvelope(t, rr)
	if months, _ := env.Data.([]any); len(months) != 0 {
		t.Errorf("expected empty history after clear, got %d months", len(months))
	}
}

func TestClearHistoryUnauthenticated(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/history", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

package ledgerapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/apierror"
)

type tokenRecorder struct {
	mu      sync.Mutex
	access  string
	refresh string
	calls   int
}

func (r *tokenRecorder) SaveLedgerTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.access = accessToken
	r.refresh = refreshToken
	r.calls++
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *tokenRecorder, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &tokenRecorder{}
	client := New(Config{
		HTTPClient:   server.Client(),
		BaseURL:      server.URL,
		UserID:       "user-1",
		BudgetID:     "budget-1",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		Tokens:       tokens,
		Logger:       zerolog.Nop(),
	})
	client.initialInterval = 1 // keep retries fast in tests

	return client, tokens, server
}

func fetchResponse(txs []Transaction, serverKnowledge int64) []byte {
	var resp transactionsResponse
	resp.Data.Transactions = txs
	resp.Data.ServerKnowledge = serverKnowledge
	b, _ := json.Marshal(resp)
	return b
}

func TestClient_FetchUnprocessed_Filtering(t *testing.T) {
	t.Parallel()

	txs := []Transaction{
		{ID: "t1", AccountID: "checking", FlagColor: "blue", Amount: -12750},
		{ID: "t2", AccountID: "checking", FlagColor: "red", Amount: -500},     // wrong flag
		{ID: "t3", AccountID: "sync-acct", FlagColor: "blue", Amount: -900},   // sync account
		{ID: "t4", AccountID: "checking", FlagColor: "blue", Deleted: true},   // deleted
		{ID: "t5", AccountID: "savings", FlagColor: "blue", Amount: 2000},
	}

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("last_knowledge_of_server") != "42" {
			t.Errorf("missing cursor param, got %q", r.URL.RawQuery)
		}
		w.Write(fetchResponse(txs, 43))
	}))

	got, knowledge, err := client.FetchUnprocessed(context.Background(), 42, FetchFilter{
		ManualFlag:    "blue",
		SyncAccountID: "sync-acct",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if knowledge != 43 {
		t.Errorf("expected server knowledge 43, got %d", knowledge)
	}
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t5" {
		t.Errorf("unexpected filter result: %+v", got)
	}
}

func TestClient_RefreshOnceOn401(t *testing.T) {
	t.Parallel()

	var fetches, refreshes int

	client, tokens, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			refreshes++
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh"})
			return
		}

		fetches++
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write(fetchResponse(nil, 10))
	}))

	_, _, err := client.FetchUnprocessed(context.Background(), 0, FetchFilter{ManualFlag: "blue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if refreshes != 1 {
		t.Errorf("expected exactly one refresh, got %d", refreshes)
	}
	if fetches != 2 {
		t.Errorf("expected 2 fetch attempts, got %d", fetches)
	}
	if tokens.access != "new-access" || tokens.refresh != "new-refresh" {
		t.Errorf("rotated tokens not persisted: %+v", tokens)
	}
}

func TestClient_SecondUnauthorizedIsFatal(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "still-bad", RefreshToken: "r"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, _, err := client.FetchUnprocessed(context.Background(), 0, FetchFilter{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !apierror.IsKind(err, apierror.KindUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if !apierror.RequiresAction(err) {
		t.Error("401 after refresh must require action")
	}
}

func TestClient_FailedRefreshIsFatal(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, _, err := client.FetchUnprocessed(context.Background(), 0, FetchFilter{})
	if !apierror.IsKind(err, apierror.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestClient_Push(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var req map[string]NewTransaction
		json.NewDecoder(r.Body).Decode(&req)
		if req["transaction"].Amount != -12750 {
			t.Errorf("unexpected amount %d", req["transaction"].Amount)
		}

		var resp transactionResponse
		resp.Data.Transaction = Transaction{ID: "created-1"}
		json.NewEncoder(w).Encode(resp)
	}))

	id, err := client.Push(context.Background(), NewTransaction{
		AccountID: "sync-acct",
		Amount:    -12750,
		PayeeName: "Pizza night",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "created-1" {
		t.Errorf("expected created-1, got %s", id)
	}
}

func TestClient_BadRequestNotRetried(t *testing.T) {
	t.Parallel()

	var calls int
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("payee_name is invalid"))
	}))

	_, err := client.Push(context.Background(), NewTransaction{})
	if !apierror.IsKind(err, apierror.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if calls != 1 {
		t.Errorf("bad request must not be retried, got %d calls", calls)
	}
}

func TestClient_TransientServerErrorRetried(t *testing.T) {
	t.Parallel()

	var calls int
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(fetchResponse(nil, 7))
	}))

	_, knowledge, err := client.FetchUnprocessed(context.Background(), 0, FetchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if knowledge != 7 {
		t.Errorf("expected 7, got %d", knowledge)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClient_MarkProcessed(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}

		var req map[string]map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["transaction"]["flag_color"] != "green" {
			t.Errorf("unexpected flag %q", req["transaction"]["flag_color"])
		}
		w.Write([]byte(`{}`))
	}))

	if err := client.MarkProcessed(context.Background(), "t1", "green"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

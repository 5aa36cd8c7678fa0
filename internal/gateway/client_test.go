package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"market_sync/internal/domain"

	"github.com/shopspring/decimal"
)

func newTestClient(url string) *Client {
	return &Client{
		rpcURL:       url,
		contract:     "0xf5fb750c7e61e6e6efa3499b4f0ce9cf2f2b1e2d",
		signer:       NewSigner("", ""),
		pollInterval: 10 * time.Millisecond,
		settleLimit:  2 * time.Second,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		logger:       slog.Default(),
	}
}

func writeEnvelope(w http.ResponseWriter, code, msg string, data interface{}) {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	resp := struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data,omitempty"`
	}{Code: code, Msg: msg, Data: raw}
	json.NewEncoder(w).Encode(resp)
}

func decodeRequest(t *testing.T, r *http.Request) rpcRequest {
	t.Helper()
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	return req
}

func TestClient_ItemCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if req.Method != methodItemCount {
			t.Errorf("unexpected method %s", req.Method)
		}
		if req.ID == "" {
			t.Error("envelope should carry a request id")
		}
		writeEnvelope(w, codeOK, "ok", itemCountResult{Count: 7})
	}))
	defer srv.Close()

	count, err := newTestClient(srv.URL).ItemCount(context.Background())
	if err != nil {
		t.Fatalf("ItemCount failed: %v", err)
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
}

func TestClient_GetItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		var params getItemParams
		b, _ := json.Marshal(req.Params)
		json.Unmarshal(b, &params)
		if params.ID != 3 {
			t.Errorf("unexpected item id %d", params.ID)
		}
		writeEnvelope(w, codeOK, "ok", itemResult{
			Name:   "Sword",
			Price:  "1000000000000000000",
			Owner:  "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
			IsSold: false,
		})
	}))
	defer srv.Close()

	item, err := newTestClient(srv.URL).GetItem(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.ID != 3 || item.Name != "Sword" || item.IsSold {
		t.Errorf("unexpected item: %+v", item)
	}
	if !item.Price.Equal(decimal.New(1, 18)) {
		t.Errorf("price = %s, want 10^18", item.Price)
	}
}

func TestClient_GetItemNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, codeNotFound, "no such item", nil)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetItem(context.Background(), 99)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) || gwErr.Op != "getItem" {
		t.Errorf("expected GatewayError{getItem}, got %v", err)
	}
}

func TestClient_OwnedItemIDsPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, codeOK, "ok", ownedItemsResult{IDs: []uint64{5, 2, 9}})
	}))
	defer srv.Close()

	ids, err := newTestClient(srv.URL).OwnedItemIDs(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	if err != nil {
		t.Fatalf("OwnedItemIDs failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != 5 || ids[1] != 2 || ids[2] != 9 {
		t.Errorf("ids = %v, want ledger order [5 2 9]", ids)
	}
}

func TestClient_BusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "5000", "internal node error", nil)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ItemCount(context.Background())
	if err == nil {
		t.Fatal("expected business error")
	}
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Errorf("expected GatewayError, got %T", err)
	}
}

func TestClient_SignedSubmitCarriesHeaders(t *testing.T) {
	var sawKey, sawSign atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MARKET-KEY") == "key" {
			sawKey.Store(true)
		}
		if r.Header.Get("X-MARKET-SIGN") != "" {
			sawSign.Store(true)
		}
		writeEnvelope(w, codeOK, "ok", submitResult{TxHash: "0xfeed"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.signer = NewSigner("key", "secret")

	if _, err := c.SubmitList(context.Background(), "Sword", decimal.New(1, 18)); err != nil {
		t.Fatalf("SubmitList failed: %v", err)
	}
	if !sawKey.Load() || !sawSign.Load() {
		t.Error("submit request should carry auth headers")
	}
}

func TestSettlement_AwaitConfirms(t *testing.T) {
	var receiptCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Method {
		case methodBuy:
			writeEnvelope(w, codeOK, "ok", submitResult{TxHash: "0xdead"})
		case methodReceipt:
			// Pending for the first two checks, then confirmed.
			if receiptCalls.Add(1) < 3 {
				writeEnvelope(w, codeOK, "ok", receiptResult{Status: txPending})
			} else {
				writeEnvelope(w, codeOK, "ok", receiptResult{Status: txConfirmed, BlockNumber: 42})
			}
		default:
			t.Errorf("unexpected method %s", req.Method)
		}
	}))
	defer srv.Close()

	handle, err := newTestClient(srv.URL).SubmitBuy(context.Background(), 3, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("SubmitBuy failed: %v", err)
	}
	if handle.TxHash() != "0xdead" {
		t.Errorf("TxHash = %s", handle.TxHash())
	}

	receipt, err := handle.Await(context.Background())
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if receipt.BlockNumber != 42 || receipt.TxHash != "0xdead" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}
}

func TestSettlement_AwaitReverted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Method {
		case methodBuy:
			writeEnvelope(w, codeOK, "ok", submitResult{TxHash: "0xdead"})
		case methodReceipt:
			writeEnvelope(w, codeOK, "ok", receiptResult{Status: txReverted, Reason: "item already sold"})
		default:
			t.Errorf("unexpected method %s", req.Method)
		}
	}))
	defer srv.Close()

	handle, err := newTestClient(srv.URL).SubmitBuy(context.Background(), 3, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("SubmitBuy failed: %v", err)
	}

	_, err = handle.Await(context.Background())
	var settleErr *domain.SettlementError
	if !errors.As(err, &settleErr) {
		t.Fatalf("expected SettlementError, got %v", err)
	}
	if settleErr.Status != domain.SettlementReverted {
		t.Errorf("status = %s, want reverted", settleErr.Status)
	}
	if settleErr.Err == nil || settleErr.Err.Error() != "item already sold" {
		t.Errorf("reason = %v", settleErr.Err)
	}
}

func TestSettlement_AwaitTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Method {
		case methodTransfer:
			writeEnvelope(w, codeOK, "ok", submitResult{TxHash: "0xslow"})
		case methodReceipt:
			writeEnvelope(w, codeOK, "ok", receiptResult{Status: txPending})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.settleLimit = 50 * time.Millisecond

	handle, err := c.SubmitTransfer(context.Background(), 5, "0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	if err != nil {
		t.Fatalf("SubmitTransfer failed: %v", err)
	}

	_, err = handle.Await(context.Background())
	var settleErr *domain.SettlementError
	if !errors.As(err, &settleErr) {
		t.Fatalf("expected SettlementError, got %v", err)
	}
	if settleErr.Status != domain.SettlementTimeout {
		t.Errorf("status = %s, want timeout", settleErr.Status)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ItemCount(context.Background())
	if err == nil {
		t.Fatal("expected error on HTTP 500")
	}
	if msg := fmt.Sprintf("%v", err); msg == "" {
		t.Error("error should describe the failure")
	}
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"market_sync/internal/domain"
	"market_sync/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is the typed boundary to the marketplace contract endpoint. It does
// no marshalling beyond parameter/result conversion; all policy lives in the
// engine.
type Client struct {
	rpcURL       string
	contract     string
	httpClient   *http.Client
	signer       *Signer
	watcher      *Watcher
	pollInterval time.Duration
	settleLimit  time.Duration
	logger       *slog.Logger
}

var _ domain.Gateway = (*Client)(nil)

// NewClient creates a gateway client from configuration. The watcher is
// optional; without one, settlement awaits fall back to pure polling.
func NewClient(cfg *infra.Config, watcher *Watcher) *Client {
	return &Client{
		rpcURL:       cfg.Ledger.RPCURL,
		contract:     cfg.Ledger.ContractAddress,
		signer:       NewSigner(cfg.Ledger.AccessKey, cfg.Ledger.SecretKey),
		watcher:      watcher,
		pollInterval: time.Duration(cfg.Ledger.PollIntervalMS) * time.Millisecond,
		settleLimit:  time.Duration(cfg.Ledger.SettleTimeoutS) * time.Second,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "gateway"),
	}
}

// ItemCount reads the total number of items ever listed.
func (c *Client) ItemCount(ctx context.Context) (uint64, error) {
	var res itemCountResult
	if err := c.call(ctx, methodItemCount, nil, &res); err != nil {
		return 0, &domain.GatewayError{Op: "itemCount", Err: err}
	}
	return res.Count, nil
}

// GetItem reads a single item by id.
func (c *Client) GetItem(ctx context.Context, id uint64) (domain.Item, error) {
	var res itemResult
	if err := c.call(ctx, methodGetItem, getItemParams{ID: id}, &res); err != nil {
		return domain.Item{}, &domain.GatewayError{Op: "getItem", Err: err}
	}

	price, err := decimal.NewFromString(res.Price)
	if err != nil {
		return domain.Item{}, &domain.GatewayError{Op: "getItem", Err: fmt.Errorf("bad price %q: %w", res.Price, err)}
	}

	return domain.Item{
		ID:     id,
		Name:   res.Name,
		Price:  price,
		Owner:  domain.Address(res.Owner),
		IsSold: res.IsSold,
	}, nil
}

// OwnedItemIDs reads the ids held by an address, in ledger-reported order.
func (c *Client) OwnedItemIDs(ctx context.Context, owner domain.Address) ([]uint64, error) {
	var res ownedItemsResult
	if err := c.call(ctx, methodOwnedItems, ownedItemsParams{Owner: string(owner)}, &res); err != nil {
		return nil, &domain.GatewayError{Op: "ownedItems", Err: err}
	}
	return res.IDs, nil
}

// SubmitList creates a new listing.
func (c *Client) SubmitList(ctx context.Context, name string, price decimal.Decimal) (domain.SettlementHandle, error) {
	return c.submit(ctx, "submitList", methodList, listParams{Name: name, Price: price.String()})
}

// SubmitBuy purchases an item, attaching the given value.
func (c *Client) SubmitBuy(ctx context.Context, id uint64, price decimal.Decimal) (domain.SettlementHandle, error) {
	return c.submit(ctx, "submitBuy", methodBuy, buyParams{ID: id, Value: price.String()})
}

// SubmitTransfer moves ownership without payment.
func (c *Client) SubmitTransfer(ctx context.Context, id uint64, to domain.Address) (domain.SettlementHandle, error) {
	return c.submit(ctx, "submitTransfer", methodTransfer, transferParams{ID: id, To: string(to)})
}

func (c *Client) submit(ctx context.Context, op, method string, params interface{}) (domain.SettlementHandle, error) {
	var res submitResult
	if err := c.call(ctx, method, params, &res); err != nil {
		return nil, &domain.GatewayError{Op: op, Err: err}
	}
	if res.TxHash == "" {
		return nil, &domain.GatewayError{Op: op, Err: errors.New("node returned no transaction hash")}
	}

	c.logger.Info("transaction submitted", "op", op, "tx", res.TxHash)

	return &settlementHandle{
		client: c,
		txHash: res.TxHash,
	}, nil
}

// call sends one envelope and decodes the data field into out.
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	env := rpcRequest{
		ID:       uuid.NewString(),
		Contract: c.contract,
		Method:   method,
		Params:   params,
	}

	jsonBytes, err := json.Marshal(env)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	if c.signer.Enabled() {
		for k, v := range c.signer.GenerateHeaders(method, string(jsonBytes)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp rpcResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	switch apiResp.Code {
	case codeOK:
	case codeNotFound:
		return domain.ErrItemNotFound
	default:
		return fmt.Errorf("node business error: code=%s msg=%s", apiResp.Code, apiResp.Msg)
	}

	if out != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
	}
	return nil
}

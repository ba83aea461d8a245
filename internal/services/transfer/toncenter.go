package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fuswap/backend/internal/ton"
	"go.uber.org/zap"
)

const lookbackTransactions = 50

// TonCenterGateway confirms transfers by polling the TON Center v2 API for
// an incoming message to the destination that carries the reference comment.
type TonCenterGateway struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	log          *zap.Logger
	now          func() time.Time
}

// NewTonCenterGateway creates a gateway against baseURL, e.g.
// https://toncenter.com/api/v2
func NewTonCenterGateway(baseURL, apiKey string, pollInterval time.Duration, log *zap.Logger) *TonCenterGateway {
	return &TonCenterGateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		pollInterval: pollInterval,
		log:          log,
		now:          time.Now,
	}
}

type tcResponse struct {
	OK     bool            `json:"ok"`
	Result []tcTransaction `json:"result"`
	Error  string          `json:"error"`
}

type tcTransaction struct {
	Utime         int64 `json:"utime"`
	TransactionID struct {
		Lt   string `json:"lt"`
		Hash string `json:"hash"`
	} `json:"transaction_id"`
	InMsg *tcMessage `json:"in_msg"`
}

type tcMessage struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Value       string `json:"value"`
	Message     string `json:"message"`
}

// Confirm polls until a matching transfer is found, the request expires or
// ctx is done. A done ctx inside the validity window yields ErrTransferPending.
func (g *TonCenterGateway) Confirm(ctx context.Context, req Request) (*Receipt, error) {
	var lastErr error
	for {
		receipt, err := g.find(ctx, req)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case errors.Is(err, ErrTransferRejected), errors.Is(err, ErrTransferExpired):
			return nil, err
		case err != nil && ctx.Err() == nil:
			lastErr = err
			g.log.Warn("toncenter poll failed", zap.String("reference", req.Reference), zap.Error(err))
		}

		if g.now().After(req.ValidUntil) {
			return nil, ErrTransferExpired
		}

		timer := time.NewTimer(g.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			if g.now().After(req.ValidUntil) {
				return nil, ErrTransferExpired
			}
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransferPending, lastErr)
			}
			return nil, ErrTransferPending
		case <-timer.C:
		}
	}
}

func (g *TonCenterGateway) find(ctx context.Context, req Request) (*Receipt, error) {
	txs, err := g.transactions(ctx, req.Destination)
	if err != nil {
		return nil, err
	}

	for _, tx := range txs {
		msg := tx.InMsg
		if msg == nil || msg.Source == "" || strings.TrimSpace(msg.Message) != req.Reference {
			continue
		}
		if !ton.SameAccount(msg.Destination, req.Destination) || !ton.SameAccount(msg.Source, req.Sender) {
			continue
		}

		value, err := strconv.ParseInt(msg.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable value %q", ErrTransferRejected, msg.Value)
		}
		if value < req.AmountNano {
			return nil, fmt.Errorf("%w: received %d nanoton, expected %d", ErrTransferRejected, value, req.AmountNano)
		}
		if tx.Utime > req.ValidUntil.Unix() {
			return nil, ErrTransferExpired
		}

		return &Receipt{
			Hash:        tx.TransactionID.Hash,
			Lt:          tx.TransactionID.Lt,
			AmountNano:  value,
			ConfirmedAt: time.Unix(tx.Utime, 0).UTC(),
		}, nil
	}
	return nil, nil
}

func (g *TonCenterGateway) transactions(ctx context.Context, address string) ([]tcTransaction, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("limit", strconv.Itoa(lookbackTransactions))
	q.Set("archival", "true")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/getTransactions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build toncenter request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to query toncenter: %w", err)
	}
	defer resp.Body.Close()

	var body tcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode toncenter response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !body.OK {
		return nil, fmt.Errorf("toncenter returned status %d: %s", resp.StatusCode, body.Error)
	}
	return body.Result, nil
}

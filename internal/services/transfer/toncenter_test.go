package transfer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fuswap/backend/internal/ton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const receiver = "UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMcEI"

func senderAddress() ton.Address {
	addr := ton.Address{Workchain: 0}
	for i := range addr.Hash {
		addr.Hash[i] = byte(i + 1)
	}
	return addr
}

func txJSON(source, value, message string, utime int64) map[string]interface{} {
	return map[string]interface{}{
		"utime": utime,
		"transaction_id": map[string]string{
			"lt":   "4700000000001",
			"hash": "dGVzdC1oYXNo",
		},
		"in_msg": map[string]string{
			"source":      source,
			"destination": receiver,
			"value":       value,
			"message":     message,
		},
	}
}

func newServer(t *testing.T, hits *int32, txs func() []map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/getTransactions", r.URL.Path)
		assert.Equal(t, receiver, r.URL.Query().Get("address"))
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": txs()})
	}))
}

func newGateway(url string) *TonCenterGateway {
	return NewTonCenterGateway(url, "key", 10*time.Millisecond, zap.NewNop())
}

func request(sender string) Request {
	return Request{
		Destination: receiver,
		Sender:      sender,
		AmountNano:  100_000_000,
		ValidUntil:  time.Now().Add(20 * time.Minute),
		Reference:   "FUS-20260101-ABCDEFGH",
	}
}

func TestConfirmFindsMatchingTransfer(t *testing.T) {
	sender := senderAddress()
	now := time.Now().Unix()
	var hits int32
	server := newServer(t, &hits, func() []map[string]interface{} {
		if atomic.LoadInt32(&hits) < 2 {
			return nil
		}
		return []map[string]interface{}{
			txJSON(sender.String(), "500000000", "other-reference", now),
			// same account, raw form, comment padded by the wallet
			txJSON(sender.Raw(), "100000000", "FUS-20260101-ABCDEFGH\n", now),
		}
	})
	defer server.Close()

	receipt, err := newGateway(server.URL).Confirm(context.Background(), request(sender.String()))
	require.NoError(t, err)
	assert.Equal(t, "dGVzdC1oYXNo", receipt.Hash)
	assert.Equal(t, int64(100_000_000), receipt.AmountNano)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&hits), int32(2))
}

func TestConfirmRejectsShortPayment(t *testing.T) {
	sender := senderAddress()
	var hits int32
	server := newServer(t, &hits, func() []map[string]interface{} {
		return []map[string]interface{}{txJSON(sender.String(), "99999999", "FUS-20260101-ABCDEFGH", time.Now().Unix())}
	})
	defer server.Close()

	_, err := newGateway(server.URL).Confirm(context.Background(), request(sender.String()))
	assert.ErrorIs(t, err, ErrTransferRejected)
}

func TestConfirmIgnoresOtherSenders(t *testing.T) {
	var hits int32
	server := newServer(t, &hits, func() []map[string]interface{} {
		return []map[string]interface{}{txJSON(receiver, "100000000", "FUS-20260101-ABCDEFGH", time.Now().Unix())}
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newGateway(server.URL).Confirm(ctx, request(senderAddress().String()))
	assert.ErrorIs(t, err, ErrTransferPending)
}

func TestConfirmExpires(t *testing.T) {
	var hits int32
	server := newServer(t, &hits, func() []map[string]interface{} { return nil })
	defer server.Close()

	req := request(senderAddress().String())
	req.ValidUntil = time.Now().Add(30 * time.Millisecond)

	_, err := newGateway(server.URL).Confirm(context.Background(), req)
	assert.ErrorIs(t, err, ErrTransferExpired)
}

func TestConfirmLateTransferIsExpired(t *testing.T) {
	sender := senderAddress()
	req := request(sender.String())
	var hits int32
	server := newServer(t, &hits, func() []map[string]interface{} {
		return []map[string]interface{}{txJSON(sender.String(), "100000000", req.Reference, req.ValidUntil.Unix()+60)}
	})
	defer server.Close()

	_, err := newGateway(server.URL).Confirm(context.Background(), req)
	assert.ErrorIs(t, err, ErrTransferExpired)
}

func TestConfirmSurfacesAPIErrorsAsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error":"Ratelimit exceed","code":429}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newGateway(server.URL).Confirm(ctx, request(senderAddress().String()))
	assert.ErrorIs(t, err, ErrTransferPending)
	assert.Contains(t, err.Error(), "Ratelimit exceed")
}

package transfer

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTransferPending means no matching transfer has been seen yet and the
	// validity window is still open. The caller may ask again.
	ErrTransferPending = errors.New("transfer not yet confirmed")
	// ErrTransferExpired means the validity window closed without a valid transfer
	ErrTransferExpired = errors.New("transfer validity window has passed")
	// ErrTransferRejected means a transfer carrying the reference was found
	// but does not satisfy the request
	ErrTransferRejected = errors.New("transfer rejected")
)

// Request is the fixed-denomination transfer a wallet was asked to sign
type Request struct {
	Destination string
	Sender      string
	AmountNano  int64
	ValidUntil  time.Time
	Reference   string
}

// Receipt identifies the on-chain transfer that satisfied a Request
type Receipt struct {
	Hash        string
	Lt          string
	AmountNano  int64
	ConfirmedAt time.Time
}

// Gateway confirms outbound wallet transfers
type Gateway interface {
	Confirm(ctx context.Context, req Request) (*Receipt, error)
}

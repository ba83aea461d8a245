package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/services/exchange"
	"github.com/fuswap/backend/internal/services/referral"
	"github.com/fuswap/backend/internal/services/transaction"
	"github.com/fuswap/backend/internal/services/transfer"
	"github.com/fuswap/backend/internal/services/voucher"
	"github.com/fuswap/backend/internal/services/wallet"
	"github.com/fuswap/backend/internal/ton"
	"github.com/fuswap/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrIntentNotFound = errors.New("transfer intent not found")
	ErrIntentClosed   = errors.New("transfer intent is no longer pending")
	ErrIntentExpired  = errors.New("transfer intent has expired")
	ErrTransferFailed = errors.New("transfer failed")
	ErrOnlyTON        = errors.New("only TON can be sent")
)

const (
	referencePrefix    = "FUS"
	defaultExpiryGrace = 10 * time.Minute
)

// Config holds settlement settings. ExpiryGrace is how long past its
// validity window an intent stays open for a late confirmation.
type Config struct {
	ReceiverAddress string
	ValidityWindow  time.Duration
	ConfirmTimeout  time.Duration
	ExpiryGrace     time.Duration
}

// Deps are the collaborators settlement drives
type Deps struct {
	Quotes   *exchange.QuoteService
	Vouchers *voucher.VoucherService
	Ledger   *referral.Ledger
	Recorder *transaction.Recorder
	Wallets  *wallet.Directory
	Gateway  transfer.Gateway
}

// SwapRequest asks for a swap of Amount TON into To
type SwapRequest struct {
	WalletAddress string
	From          string
	To            string
	Amount        decimal.Decimal
	ReferralCode  string
}

// Settlement is the outcome of a confirmed transfer
type Settlement struct {
	Intent      *models.TransferIntent      `json:"intent"`
	Transaction *models.Transaction         `json:"transaction"`
	Quote       *exchange.Quote             `json:"quote,omitempty"`
	Voucher     *models.ActiveVoucher       `json:"voucher,omitempty"`
	Referral    *models.ReferralTransaction `json:"-"`
}

// SettlementService turns confirmed wallet transfers into swaps and voucher
// purchases. No effect is applied before the gateway confirms the transfer.
type SettlementService struct {
	db   *gorm.DB
	deps Deps
	cfg  Config
	log  *zap.Logger
	now  func() time.Time
}

// NewSettlementService creates a settlement service
func NewSettlementService(db *gorm.DB, deps Deps, cfg Config, log *zap.Logger) *SettlementService {
	if cfg.ExpiryGrace <= 0 {
		cfg.ExpiryGrace = defaultExpiryGrace
	}
	return &SettlementService{
		db:   db,
		deps: deps,
		cfg:  cfg,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateSwapIntent prices a swap and records the transfer the wallet must sign
func (s *SettlementService) CreateSwapIntent(ctx context.Context, req SwapRequest) (*models.TransferIntent, *exchange.Quote, error) {
	if !strings.EqualFold(req.From, exchange.SymbolTON) {
		return nil, nil, ErrOnlyTON
	}

	current, err := s.deps.Vouchers.Current(ctx, req.WalletAddress)
	if err != nil {
		return nil, nil, err
	}

	quote, err := s.deps.Quotes.Quote(ctx, exchange.QuoteRequest{
		From:    req.From,
		To:      req.To,
		Amount:  req.Amount,
		Voucher: current,
	})
	if err != nil {
		return nil, nil, err
	}

	intent, err := s.newIntent(models.TransactionTypeSwap, req.WalletAddress, req.Amount)
	if err != nil {
		return nil, nil, err
	}
	intent.FromCurrency = quote.From
	intent.ToCurrency = quote.To
	intent.SendRate = quote.SendRate
	intent.ReceiveRate = quote.ReceiveRate
	intent.ReferralCode = strings.TrimSpace(req.ReferralCode)

	if err := s.create(ctx, intent); err != nil {
		return nil, nil, err
	}
	return intent, quote, nil
}

// CreateVoucherIntent records the transfer that pays for a catalog voucher
func (s *SettlementService) CreateVoucherIntent(ctx context.Context, walletAddress string, voucherRateID uuid.UUID) (*models.TransferIntent, *models.VoucherRate, error) {
	rate, err := s.deps.Vouchers.Get(ctx, voucherRateID)
	if err != nil {
		return nil, nil, err
	}

	intent, err := s.newIntent(models.TransactionTypeVoucher, walletAddress, rate.Price)
	if err != nil {
		return nil, nil, err
	}
	intent.VoucherRateID = &rate.ID

	if err := s.create(ctx, intent); err != nil {
		return nil, nil, err
	}
	return intent, rate, nil
}

// Get returns an intent owned by walletAddress
func (s *SettlementService) Get(ctx context.Context, id uuid.UUID, walletAddress string) (*models.TransferIntent, error) {
	var intent models.TransferIntent
	err := s.db.WithContext(ctx).Where("id = ? AND wallet_address = ?", id, walletAddress).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding transfer intent: %w", err)
	}
	return &intent, nil
}

// Confirm asks the gateway whether the intent's transfer happened and, if
// so, applies its effects. The gateway is asked even after the validity
// window, since a transfer sent in time may be indexed late.
// transfer.ErrTransferPending leaves the intent open so the caller can ask
// again, until the grace period runs out.
func (s *SettlementService) Confirm(ctx context.Context, id uuid.UUID, walletAddress string) (*Settlement, error) {
	intent, err := s.Get(ctx, id, walletAddress)
	if err != nil {
		return nil, err
	}
	if intent.Status != models.IntentStatusPending {
		return nil, ErrIntentClosed
	}

	gctx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.ConfirmTimeout > 0 {
		gctx, cancel = context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	}
	defer cancel()

	receipt, err := s.deps.Gateway.Confirm(gctx, transfer.Request{
		Destination: intent.Destination,
		Sender:      intent.WalletAddress,
		AmountNano:  intent.AmountNano,
		ValidUntil:  intent.ValidUntil,
		Reference:   intent.Reference,
	})
	switch {
	case err == nil:
	case errors.Is(err, transfer.ErrTransferPending):
		if intent.Expired(s.now().Add(-s.cfg.ExpiryGrace)) {
			s.close(ctx, intent, models.IntentStatusExpired, "validity window passed")
			return nil, ErrIntentExpired
		}
		return nil, err
	case errors.Is(err, transfer.ErrTransferExpired):
		s.close(ctx, intent, models.IntentStatusExpired, err.Error())
		return nil, ErrIntentExpired
	default:
		s.close(ctx, intent, models.IntentStatusFailed, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	result, err := s.apply(ctx, intent, receipt)
	if errors.Is(err, transaction.ErrDuplicateTransfer) {
		s.close(ctx, intent, models.IntentStatusFailed, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("transfer settled",
		zap.String("intent_id", intent.ID.String()),
		zap.String("kind", string(intent.Kind)),
		zap.String("wallet", intent.WalletAddress),
		zap.String("transfer_hash", receipt.Hash))
	return result, nil
}

// ExpireStale closes pending intents whose validity window and grace period
// have both passed
func (s *SettlementService) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.ExpiryGrace)
	res := s.db.WithContext(ctx).Model(&models.TransferIntent{}).
		Where("status = ? AND valid_until < ?", models.IntentStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":         models.IntentStatusExpired,
			"failure_reason": "validity window passed",
		})
	if res.Error != nil {
		return 0, fmt.Errorf("error expiring transfer intents: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("expired stale transfer intents", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

func (s *SettlementService) newIntent(kind models.TransactionType, walletAddress string, amount decimal.Decimal) (*models.TransferIntent, error) {
	nano, err := ton.ToNano(amount)
	if err != nil {
		return nil, err
	}
	if nano <= 0 {
		return nil, exchange.ErrInvalidAmount
	}

	now := s.now()
	return &models.TransferIntent{
		Kind:          kind,
		WalletAddress: walletAddress,
		Destination:   s.cfg.ReceiverAddress,
		Amount:        amount,
		AmountNano:    nano,
		Reference:     utils.GenerateReference(referencePrefix),
		ValidUntil:    now.Add(s.cfg.ValidityWindow),
		Status:        models.IntentStatusPending,
	}, nil
}

func (s *SettlementService) create(ctx context.Context, intent *models.TransferIntent) error {
	if err := s.db.WithContext(ctx).Create(intent).Error; err != nil {
		return fmt.Errorf("error creating transfer intent: %w", err)
	}
	s.log.Info("transfer intent created",
		zap.String("intent_id", intent.ID.String()),
		zap.String("kind", string(intent.Kind)),
		zap.String("wallet", intent.WalletAddress),
		zap.String("amount", intent.Amount.String()))
	return nil
}

func (s *SettlementService) close(ctx context.Context, intent *models.TransferIntent, status models.IntentStatus, reason string) {
	err := s.db.WithContext(ctx).Model(&models.TransferIntent{}).
		Where("id = ? AND status = ?", intent.ID, models.IntentStatusPending).
		Updates(map[string]interface{}{"status": status, "failure_reason": reason}).Error
	if err != nil {
		s.log.Error("failed to close transfer intent", zap.String("intent_id", intent.ID.String()), zap.Error(err))
		return
	}
	intent.Status = status
	intent.FailureReason = reason
}

func (s *SettlementService) apply(ctx context.Context, intent *models.TransferIntent, receipt *transfer.Receipt) (*Settlement, error) {
	result := &Settlement{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&models.TransferIntent{}).Where("transfer_hash = ?", receipt.Hash).Count(&used).Error; err != nil {
			return fmt.Errorf("error checking transfer hash: %w", err)
		}
		if used > 0 {
			return transaction.ErrDuplicateTransfer
		}

		now := s.now()
		res := tx.Model(&models.TransferIntent{}).
			Where("id = ? AND status = ?", intent.ID, models.IntentStatusPending).
			Updates(map[string]interface{}{
				"status":        models.IntentStatusConfirmed,
				"transfer_hash": receipt.Hash,
				"confirmed_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("error confirming transfer intent: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrIntentClosed
		}

		switch intent.Kind {
		case models.TransactionTypeSwap:
			return s.applySwap(ctx, tx, intent, receipt, now, result)
		case models.TransactionTypeVoucher:
			return s.applyVoucher(ctx, tx, intent, receipt, now, result)
		default:
			return fmt.Errorf("unknown transfer intent kind %q", intent.Kind)
		}
	})
	if err != nil {
		return nil, err
	}

	confirmed, err := s.Get(ctx, intent.ID, intent.WalletAddress)
	if err != nil {
		return nil, err
	}
	result.Intent = confirmed
	return result, nil
}

func (s *SettlementService) applySwap(ctx context.Context, tx *gorm.DB, intent *models.TransferIntent, receipt *transfer.Receipt, now time.Time, result *Settlement) error {
	vouchers := s.deps.Vouchers.WithTx(tx)

	var bonusVoucher *models.ActiveVoucher
	current, err := vouchers.Current(ctx, intent.WalletAddress)
	if err != nil {
		return err
	}
	if current != nil && !current.Exhausted() {
		snapshot := *current
		applied, err := vouchers.Consume(ctx, current)
		if err != nil {
			return err
		}
		if applied {
			bonusVoucher = &snapshot
		}
		result.Voucher = current
	}

	quote := exchange.Price(
		exchange.Currency{Symbol: intent.FromCurrency, Rate: intent.SendRate},
		exchange.Currency{Symbol: intent.ToCurrency, Rate: intent.ReceiveRate},
		intent.Amount,
		bonusVoucher,
	)
	result.Quote = quote

	if intent.ReferralCode != "" {
		record, _, err := s.deps.Ledger.WithTx(tx).Record(ctx, intent.ReferralCode, intent.Amount, intent.WalletAddress)
		if err != nil {
			return err
		}
		result.Referral = record
	}

	details := &models.SwapDetails{
		FromCurrency:  quote.From,
		ToCurrency:    quote.To,
		SendAmount:    quote.SendAmount,
		ReceiveAmount: quote.ReceiveAmount,
		SendRate:      quote.SendRate,
		ReceiveRate:   quote.ReceiveRate,
		BonusApplied:  quote.BonusApplied,
		ReferralCode:  intent.ReferralCode,
	}
	if bonusVoucher != nil {
		details.VoucherID = &bonusVoucher.ID
	}

	record, err := s.deps.Recorder.WithTx(tx).Record(ctx, transaction.RecordInput{
		WalletAddress: intent.WalletAddress,
		Amount:        intent.Amount,
		Details:       models.TransactionDetails{Swap: details},
		TransferHash:  receipt.Hash,
		Timestamp:     now,
	})
	if err != nil {
		return err
	}
	result.Transaction = record

	return s.deps.Wallets.WithTx(tx).AddSwapped(ctx, intent.WalletAddress, intent.Amount)
}

func (s *SettlementService) applyVoucher(ctx context.Context, tx *gorm.DB, intent *models.TransferIntent, receipt *transfer.Receipt, now time.Time, result *Settlement) error {
	if intent.VoucherRateID == nil {
		return fmt.Errorf("voucher intent %s has no voucher", intent.ID)
	}
	vouchers := s.deps.Vouchers.WithTx(tx)

	rate, err := vouchers.Get(ctx, *intent.VoucherRateID)
	if err != nil {
		return err
	}

	active, err := vouchers.Activate(ctx, intent.WalletAddress, rate, receipt.Hash)
	if err != nil {
		return err
	}
	result.Voucher = active

	record, err := s.deps.Recorder.WithTx(tx).Record(ctx, transaction.RecordInput{
		WalletAddress: intent.WalletAddress,
		Amount:        intent.Amount,
		Details: models.TransactionDetails{Voucher: &models.VoucherPurchaseDetails{
			VoucherID:   rate.ID,
			VoucherName: rate.Name,
			Bonus:       rate.Bonus,
		}},
		TransferHash: receipt.Hash,
		Timestamp:    now,
	})
	if err != nil {
		return err
	}
	result.Transaction = record

	return s.deps.Wallets.WithTx(tx).Touch(ctx, intent.WalletAddress)
}

package marketplace

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"nft_marketplace/internal/event"
	"nft_marketplace/internal/token"

	"go.uber.org/zap"
)

// FeeRegistry is the registry surface the settlement engine depends on.
type FeeRegistry interface {
	ApprovedCurrencies(currency string) bool
	FeeInfo(gross *big.Int) (string, *big.Int)
}

// CreateSaleParams carries the immutable fields of a new sale.
type CreateSaleParams struct {
	IsUniqueAsset bool
	AssetContract string
	NFTID         uint64
	Amount        *big.Int
	StartTime     int64
	EndTime       int64
	UnitPrice     *big.Int
	Currency      string
}

// Service owns the sale ledger and enforces the escrow/settlement protocol.
// Every mutating operation runs to completion under one mutex, so checks and
// effects of a settlement form a single indivisible step.
type Service struct {
	mu       sync.Mutex
	storage  Storage
	registry FeeRegistry
	events   *event.Emitter
	logger   *zap.Logger
	now      func() time.Time

	// account is the address under which the marketplace holds escrowed
	// assets and collected funds at the collaborators.
	account    string
	exclusive  map[string]token.ExclusiveAsset
	quantity   map[string]token.QuantityAsset
	currencies map[string]token.Currency

	// balances is the internal currency balance buyers may spend through
	// amountFromBalance, keyed by currency then owner. The marketplace
	// custody account at the currency collaborator backs every entry.
	balances map[string]map[string]*big.Int

	nextID uint64
}

// NewService creates a Service over the given ledger. The id sequence resumes
// after the highest stored sale.
func NewService(storage Storage, registry FeeRegistry, events *event.Emitter, logger *zap.Logger, account string) (*Service, error) {
	if account == "" {
		return nil, errors.New("marketplace account address is required")
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	last, err := storage.LastID()
	if err != nil {
		return nil, fmt.Errorf("reading ledger head: %w", err)
	}
	return &Service{
		storage:    storage,
		registry:   registry,
		events:     events,
		logger:     logger,
		now:        time.Now,
		account:    account,
		exclusive:  make(map[string]token.ExclusiveAsset),
		quantity:   make(map[string]token.QuantityAsset),
		currencies: make(map[string]token.Currency),
		balances:   make(map[string]map[string]*big.Int),
		nextID:     last,
	}, nil
}

// Account returns the marketplace custody address.
func (s *Service) Account() string {
	return s.account
}

// RegisterExclusiveAsset wires an exclusive-ownership collaborator under its address.
func (s *Service) RegisterExclusiveAsset(addr string, a token.ExclusiveAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusive[addr] = a
}

// RegisterQuantityAsset wires a quantity-based collaborator under its address.
func (s *Service) RegisterQuantityAsset(addr string, a token.QuantityAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantity[addr] = a
}

// RegisterCurrency wires a payment-currency collaborator under its address.
func (s *Service) RegisterCurrency(addr string, c token.Currency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies[addr] = c
}

// CreateSale escrows the asset and stores the sale record atomically: if the
// custody transfer is rejected no record is created.
func (s *Service) CreateSale(seller string, p CreateSaleParams) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.ApprovedCurrencies(p.Currency) {
		return 0, fmt.Errorf("%w: %s", ErrCurrencyNotApproved, p.Currency)
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidSaleParameters)
	}
	if p.IsUniqueAsset && p.Amount.Cmp(big.NewInt(1)) != 0 {
		return 0, fmt.Errorf("%w: unique asset sale must list exactly one unit", ErrInvalidSaleParameters)
	}
	if p.StartTime >= p.EndTime {
		return 0, fmt.Errorf("%w: start time %d is not before end time %d", ErrInvalidSaleParameters, p.StartTime, p.EndTime)
	}
	if p.UnitPrice == nil || p.UnitPrice.Sign() <= 0 {
		return 0, fmt.Errorf("%w: unit price must be positive", ErrInvalidSaleParameters)
	}

	if err := s.escrowFrom(seller, p); err != nil {
		s.logger.Warn("escrow transfer rejected",
			zap.String("seller", seller),
			zap.String("asset_contract", p.AssetContract),
			zap.Uint64("nft_id", p.NFTID),
			zap.Error(err),
		)
		return 0, err
	}

	id := s.nextID + 1
	sale := &Sale{
		ID:            id,
		NFTID:         p.NFTID,
		IsUniqueAsset: p.IsUniqueAsset,
		AssetContract: p.AssetContract,
		Seller:        seller,
		Currency:      p.Currency,
		Amount:        new(big.Int).Set(p.Amount),
		Purchased:     new(big.Int),
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		UnitPrice:     new(big.Int).Set(p.UnitPrice),
	}
	if err := s.storage.Set(sale); err != nil {
		s.returnEscrow(seller, p)
		return 0, fmt.Errorf("failed to save sale: %w", err)
	}
	s.nextID = id

	s.logger.Info("sale created",
		zap.Uint64("sale_id", id),
		zap.String("seller", seller),
		zap.String("asset_contract", p.AssetContract),
		zap.Uint64("nft_id", p.NFTID),
		zap.String("amount", p.Amount.String()),
		zap.String("unit_price", p.UnitPrice.String()),
		zap.String("currency", p.Currency),
	)
	if s.events != nil {
		s.events.Emit(event.SaleCreated, SaleCreatedPayload{
			SaleID:        id,
			Seller:        seller,
			AssetContract: p.AssetContract,
			NFTID:         p.NFTID,
			Amount:        new(big.Int).Set(p.Amount),
			UnitPrice:     new(big.Int).Set(p.UnitPrice),
			Currency:      p.Currency,
		})
	}
	return id, nil
}

// Buy settles a purchase of amountToBuy units. amountFromBalance units are
// paid from the buyer's internal balance; the remainder is pulled from the
// buyer at the currency collaborator. All sub-steps succeed or the call fails
// with purchased unchanged.
func (s *Service) Buy(buyer string, saleID uint64, recipient string, amountToBuy, amountFromBalance *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.storage.Read(saleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: sale %d does not exist", ErrSaleNotActive, saleID)
		}
		return fmt.Errorf("reading sale %d: %w", saleID, err)
	}

	if amountToBuy == nil || amountToBuy.Sign() <= 0 {
		return fmt.Errorf("%w: purchase quantity must be positive", ErrInvalidAmount)
	}
	if amountFromBalance == nil {
		amountFromBalance = new(big.Int)
	}
	if amountFromBalance.Sign() < 0 || amountFromBalance.Cmp(amountToBuy) > 0 {
		return fmt.Errorf("%w: amountFromBalance must not exceed purchase quantity", ErrInvalidAmount)
	}

	remaining := sale.Remaining()
	if amountToBuy.Cmp(remaining) > 0 {
		return fmt.Errorf("%w: sale %d has %s left, requested %s", ErrQuantityExceeded, saleID, remaining, amountToBuy)
	}
	if status := sale.StatusAt(s.now().Unix()); status != StatusActive {
		return fmt.Errorf("%w: sale %d is %s", ErrSaleNotActive, saleID, status)
	}

	currency, ok := s.currencies[sale.Currency]
	if !ok {
		return fmt.Errorf("%w: no collaborator registered for currency %s", ErrPaymentTransferFailed, sale.Currency)
	}

	gross := new(big.Int).Mul(sale.UnitPrice, amountToBuy)
	feeRecipient, fee := s.registry.FeeInfo(gross)
	fromBalanceValue := new(big.Int).Mul(sale.UnitPrice, amountFromBalance)

	held := s.balanceLocked(sale.Currency, buyer)
	if held.Cmp(fromBalanceValue) < 0 {
		return fmt.Errorf("%w: %s holds %s with the marketplace, needs %s",
			ErrInsufficientBalance, buyer, held, fromBalanceValue)
	}

	// Every fallible check is done; the pull is the last step that can fail
	// without the marketplace already holding the funds to undo it.
	pull := new(big.Int).Sub(gross, fromBalanceValue)
	if pull.Sign() > 0 {
		if err := currency.TransferFrom(s.account, buyer, s.account, pull); err != nil {
			return fmt.Errorf("%w: %s", ErrPaymentTransferFailed, err)
		}
	}
	held.Sub(held, fromBalanceValue)

	// From here on the custody account holds the full gross, so payouts and
	// the escrow release only fail with a misbehaving collaborator.
	if fee.Sign() > 0 {
		if err := currency.TransferFrom(s.account, s.account, feeRecipient, fee); err != nil {
			held.Add(held, fromBalanceValue)
			if pull.Sign() > 0 {
				if rerr := currency.TransferFrom(s.account, s.account, buyer, pull); rerr != nil {
					s.logger.Error("refund after failed fee payout also failed",
						zap.Uint64("sale_id", saleID), zap.Error(rerr))
				}
			}
			return fmt.Errorf("%w: fee payout: %s", ErrPaymentTransferFailed, err)
		}
	}

	sellerShare := new(big.Int).Sub(gross, fee)
	if sellerShare.Sign() > 0 {
		if err := currency.TransferFrom(s.account, s.account, sale.Seller, sellerShare); err != nil {
			// The fee is already with the fee recipient and cannot be pulled
			// back without its cooperation. Custody still holds gross-fee,
			// which is credited to the buyer's internal balance; the fee
			// itself is the logged residual to reconcile manually.
			held.Add(held, sellerShare)
			s.logger.Error("seller payout rejected after fee payout; buyer compensated from custody, fee residual needs manual reconciliation",
				zap.Uint64("sale_id", saleID),
				zap.String("fee", fee.String()),
				zap.String("fee_recipient", feeRecipient),
				zap.Error(err),
			)
			return fmt.Errorf("%w: seller payout: %s", ErrPaymentTransferFailed, err)
		}
	}

	if err := s.releaseEscrow(sale, recipient, amountToBuy); err != nil {
		s.logger.Error("escrow release rejected after settlement; manual reconciliation required",
			zap.Uint64("sale_id", saleID),
			zap.String("recipient", recipient),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s", ErrEscrowTransferFailed, err)
	}

	sale.Purchased.Add(sale.Purchased, amountToBuy)
	if err := s.storage.Set(sale); err != nil {
		return fmt.Errorf("failed to save sale %d: %w", saleID, err)
	}

	s.logger.Info("purchase completed",
		zap.Uint64("sale_id", saleID),
		zap.String("buyer", buyer),
		zap.String("recipient", recipient),
		zap.String("quantity", amountToBuy.String()),
		zap.String("gross", gross.String()),
		zap.String("fee", fee.String()),
	)
	if s.events != nil {
		s.events.Emit(event.PurchaseCompleted, PurchaseCompletedPayload{
			SaleID:    saleID,
			Quantity:  new(big.Int).Set(amountToBuy),
			Buyer:     buyer,
			Recipient: recipient,
			Gross:     gross,
			Fee:       new(big.Int).Set(fee),
		})
	}
	return nil
}

// Deposit pulls approved-currency funds from owner into marketplace custody
// and credits the owner's internal balance for later amountFromBalance use.
func (s *Service) Deposit(owner, currencyAddr string, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.ApprovedCurrencies(currencyAddr) {
		return fmt.Errorf("%w: %s", ErrCurrencyNotApproved, currencyAddr)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit must be positive", ErrInvalidAmount)
	}
	currency, ok := s.currencies[currencyAddr]
	if !ok {
		return fmt.Errorf("%w: no collaborator registered for currency %s", ErrPaymentTransferFailed, currencyAddr)
	}
	if err := currency.TransferFrom(s.account, owner, s.account, amount); err != nil {
		return fmt.Errorf("%w: %s", ErrPaymentTransferFailed, err)
	}

	held := s.balanceLocked(currencyAddr, owner)
	held.Add(held, amount)
	s.logger.Info("deposit credited",
		zap.String("owner", owner),
		zap.String("currency", currencyAddr),
		zap.String("amount", amount.String()),
	)
	return nil
}

// BalanceOf returns the internal balance owner may spend via amountFromBalance.
func (s *Service) BalanceOf(owner, currencyAddr string) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.balanceLocked(currencyAddr, owner))
}

// GetSaleStatus derives the status of a sale at the current time.
func (s *Service) GetSaleStatus(saleID uint64) SaleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := s.storage.Read(saleID)
	if err != nil {
		return StatusUnknown
	}
	return sale.StatusAt(s.now().Unix())
}

// Sales returns the stored record for a sale id, or the zero record if the id
// was never allocated.
func (s *Service) Sales(saleID uint64) Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.salesLocked(saleID)
}

// GetSales returns the records for fromID..toID inclusive in ascending order.
// Ids never allocated yield the zero record rather than an error.
func (s *Service) GetSales(fromID, toID uint64) []Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	if toID < fromID {
		return []Sale{}
	}
	sales := make([]Sale, 0, toID-fromID+1)
	for id := fromID; id <= toID; id++ {
		sales = append(sales, s.salesLocked(id))
	}
	return sales
}

func (s *Service) salesLocked(saleID uint64) Sale {
	sale, err := s.storage.Read(saleID)
	if err != nil {
		return zeroSale()
	}
	return *sale
}

func (s *Service) escrowFrom(seller string, p CreateSaleParams) error {
	if p.IsUniqueAsset {
		asset, ok := s.exclusive[p.AssetContract]
		if !ok {
			return fmt.Errorf("%w: no collaborator registered for asset contract %s", ErrEscrowTransferFailed, p.AssetContract)
		}
		if err := asset.TransferFrom(s.account, seller, s.account, p.NFTID); err != nil {
			return fmt.Errorf("%w: %s", ErrEscrowTransferFailed, err)
		}
		return nil
	}
	asset, ok := s.quantity[p.AssetContract]
	if !ok {
		return fmt.Errorf("%w: no collaborator registered for asset contract %s", ErrEscrowTransferFailed, p.AssetContract)
	}
	if err := asset.TransferFrom(s.account, seller, s.account, p.NFTID, p.Amount); err != nil {
		return fmt.Errorf("%w: %s", ErrEscrowTransferFailed, err)
	}
	return nil
}

func (s *Service) returnEscrow(seller string, p CreateSaleParams) {
	var err error
	if p.IsUniqueAsset {
		err = s.exclusive[p.AssetContract].TransferFrom(s.account, s.account, seller, p.NFTID)
	} else {
		err = s.quantity[p.AssetContract].TransferFrom(s.account, s.account, seller, p.NFTID, p.Amount)
	}
	if err != nil {
		s.logger.Error("returning escrow after failed sale creation failed",
			zap.String("seller", seller),
			zap.Uint64("nft_id", p.NFTID),
			zap.Error(err),
		)
	}
}

func (s *Service) releaseEscrow(sale *Sale, recipient string, quantity *big.Int) error {
	if sale.IsUniqueAsset {
		asset, ok := s.exclusive[sale.AssetContract]
		if !ok {
			return fmt.Errorf("no collaborator registered for asset contract %s", sale.AssetContract)
		}
		return asset.TransferFrom(s.account, s.account, recipient, sale.NFTID)
	}
	asset, ok := s.quantity[sale.AssetContract]
	if !ok {
		return fmt.Errorf("no collaborator registered for asset contract %s", sale.AssetContract)
	}
	return asset.TransferFrom(s.account, s.account, recipient, sale.NFTID, quantity)
}

func (s *Service) balanceLocked(currencyAddr, owner string) *big.Int {
	if s.balances[currencyAddr] == nil {
		s.balances[currencyAddr] = make(map[string]*big.Int)
	}
	if s.balances[currencyAddr][owner] == nil {
		s.balances[currencyAddr][owner] = new(big.Int)
	}
	return s.balances[currencyAddr][owner]
}

// SetClock overrides the time source. Test hook; sale status is a pure
// function of this clock and stored state.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

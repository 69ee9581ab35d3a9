package token

import (
	"errors"
	"math/big"
)

// ErrNotAuthorized is returned when a spender moves tokens it has no approval for.
var ErrNotAuthorized = errors.New("spender not authorized")

// ErrUnknownAsset is returned when an asset id has never been minted.
var ErrUnknownAsset = errors.New("unknown asset")

// ErrInsufficientBalance is returned when a transfer exceeds the holder's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrInsufficientAllowance is returned when a currency pull exceeds the
// allowance the owner granted to the spender.
var ErrInsufficientAllowance = errors.New("insufficient allowance")

// ExclusiveAsset is the custody surface of an exclusive-ownership token
// contract: each asset id has exactly one current owner.
type ExclusiveAsset interface {
	// TransferFrom moves custody of assetID from `from` to `to` on behalf of
	// spender. The spender must be the owner, the per-asset approved address,
	// or an approved operator.
	TransferFrom(spender, from, to string, assetID uint64) error
	BalanceOf(owner string) uint64
	OwnerOf(assetID uint64) (string, error)
}

// QuantityAsset is the custody surface of a quantity-based token contract:
// a single asset id exists in many units, held in arbitrary amounts.
type QuantityAsset interface {
	TransferFrom(spender, from, to string, assetID uint64, quantity *big.Int) error
	BalanceOf(owner string, assetID uint64) *big.Int
}

// Currency is the payment-token surface the settlement engine needs.
type Currency interface {
	BalanceOf(owner string) *big.Int
	// Approve authorizes spender to pull up to amount from owner's balance.
	Approve(owner, spender string, amount *big.Int)
	// TransferFrom moves amount from owner to recipient on behalf of spender.
	// A spender moving its own funds needs no allowance.
	TransferFrom(spender, owner, recipient string, amount *big.Int) error
	// Mint credits freshly created units to recipient. Test/mock facility.
	Mint(recipient string, amount *big.Int)
}

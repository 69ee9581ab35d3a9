package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockNFT_MintAndOwnership(t *testing.T) {
	nft := NewMockNFT()

	require.NoError(t, nft.Mint("alice", 1))
	assert.Error(t, nft.Mint("bob", 1), "an asset id can only be minted once")

	owner, err := nft.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, err = nft.OwnerOf(2)
	assert.ErrorIs(t, err, ErrUnknownAsset)

	require.NoError(t, nft.Mint("alice", 2))
	assert.Equal(t, uint64(2), nft.BalanceOf("alice"))
	assert.Equal(t, uint64(0), nft.BalanceOf("bob"))
}

func TestMockNFT_TransferAuthorization(t *testing.T) {
	nft := NewMockNFT()
	require.NoError(t, nft.Mint("alice", 1))

	err := nft.TransferFrom("market", "alice", "market", 1)
	assert.ErrorIs(t, err, ErrNotAuthorized, "a spender without approval may not move the asset")

	assert.ErrorIs(t, nft.Approve("bob", "market", 1), ErrNotAuthorized, "only the owner grants approvals")
	require.NoError(t, nft.Approve("alice", "market", 1))
	require.NoError(t, nft.TransferFrom("market", "alice", "market", 1))

	owner, err := nft.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, "market", owner)

	// The per-asset approval is spent by the transfer.
	require.NoError(t, nft.TransferFrom("market", "market", "bob", 1))
	err = nft.TransferFrom("market", "bob", "market", 1)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestMockNFT_OperatorApproval(t *testing.T) {
	nft := NewMockNFT()
	require.NoError(t, nft.Mint("alice", 1))
	require.NoError(t, nft.Mint("alice", 2))

	nft.SetApprovalForAll("alice", "market", true)
	require.NoError(t, nft.TransferFrom("market", "alice", "bob", 1))
	require.NoError(t, nft.TransferFrom("market", "alice", "bob", 2))

	nft.SetApprovalForAll("bob", "market", false)
	err := nft.TransferFrom("market", "bob", "alice", 1)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestMockNFT_TransferFromWrongOwner(t *testing.T) {
	nft := NewMockNFT()
	require.NoError(t, nft.Mint("alice", 1))

	err := nft.TransferFrom("alice", "bob", "alice", 1)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = nft.TransferFrom("alice", "alice", "bob", 99)
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestMockMultiToken_Transfers(t *testing.T) {
	multi := NewMockMultiToken()
	multi.Mint("alice", 5, big.NewInt(10))

	err := multi.TransferFrom("market", "alice", "market", 5, big.NewInt(3))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	multi.SetApprovalForAll("alice", "market", true)
	require.NoError(t, multi.TransferFrom("market", "alice", "market", 5, big.NewInt(3)))
	assert.Equal(t, big.NewInt(7), multi.BalanceOf("alice", 5))
	assert.Equal(t, big.NewInt(3), multi.BalanceOf("market", 5))

	// A holder moves its own units without an operator grant.
	require.NoError(t, multi.TransferFrom("market", "market", "bob", 5, big.NewInt(3)))
	assert.Equal(t, big.NewInt(3), multi.BalanceOf("bob", 5))

	err = multi.TransferFrom("market", "alice", "market", 5, big.NewInt(8))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestMockMultiToken_BalanceIsACopy(t *testing.T) {
	multi := NewMockMultiToken()
	multi.Mint("alice", 5, big.NewInt(10))

	bal := multi.BalanceOf("alice", 5)
	bal.SetInt64(0)
	assert.Equal(t, big.NewInt(10), multi.BalanceOf("alice", 5))
}

func TestMockCurrency_AllowanceConsumption(t *testing.T) {
	coin := NewMockCurrency()
	coin.Mint("alice", big.NewInt(100))

	err := coin.TransferFrom("market", "alice", "market", big.NewInt(10))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	coin.Approve("alice", "market", big.NewInt(30))
	require.NoError(t, coin.TransferFrom("market", "alice", "market", big.NewInt(10)))
	assert.Equal(t, big.NewInt(20), coin.Allowance("alice", "market"))

	err = coin.TransferFrom("market", "alice", "market", big.NewInt(21))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, coin.TransferFrom("market", "alice", "market", big.NewInt(20)))
	assert.Equal(t, big.NewInt(0), coin.Allowance("alice", "market"))
	assert.Equal(t, big.NewInt(70), coin.BalanceOf("alice"))
	assert.Equal(t, big.NewInt(30), coin.BalanceOf("market"))
}

func TestMockCurrency_SelfTransferNeedsNoAllowance(t *testing.T) {
	coin := NewMockCurrency()
	coin.Mint("market", big.NewInt(100))

	require.NoError(t, coin.TransferFrom("market", "market", "alice", big.NewInt(40)))
	assert.Equal(t, big.NewInt(60), coin.BalanceOf("market"))
	assert.Equal(t, big.NewInt(40), coin.BalanceOf("alice"))
}

func TestMockCurrency_InsufficientBalance(t *testing.T) {
	coin := NewMockCurrency()
	coin.Mint("alice", big.NewInt(5))
	coin.Approve("alice", "market", big.NewInt(100))

	err := coin.TransferFrom("market", "alice", "market", big.NewInt(10))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The rejected pull must not consume any of the granted allowance.
	assert.Equal(t, big.NewInt(100), coin.Allowance("alice", "market"))
	assert.Equal(t, big.NewInt(5), coin.BalanceOf("alice"))

	require.NoError(t, coin.TransferFrom("market", "alice", "market", big.NewInt(5)))
	assert.Equal(t, big.NewInt(95), coin.Allowance("alice", "market"))

	err = coin.TransferFrom("alice", "alice", "bob", big.NewInt(-1))
	assert.Error(t, err, "negative amounts are rejected outright")
}

func TestMockCurrency_BalanceIsACopy(t *testing.T) {
	coin := NewMockCurrency()
	coin.Mint("alice", big.NewInt(100))

	bal := coin.BalanceOf("alice")
	bal.SetInt64(0)
	assert.Equal(t, big.NewInt(100), coin.BalanceOf("alice"))
}

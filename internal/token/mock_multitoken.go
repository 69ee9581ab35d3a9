package token

import (
	"fmt"
	"math/big"
	"sync"
)

// MockMultiToken is an in-memory quantity-based token contract. Balances are
// tracked per (asset id, holder); transfers on behalf of a holder require an
// operator approval.
type MockMultiToken struct {
	mu        sync.Mutex
	balances  map[uint64]map[string]*big.Int
	operators map[string]map[string]bool
}

func NewMockMultiToken() *MockMultiToken {
	return &MockMultiToken{
		balances:  make(map[uint64]map[string]*big.Int),
		operators: make(map[string]map[string]bool),
	}
}

// Mint credits quantity units of assetID to `to`.
func (m *MockMultiToken) Mint(to string, assetID uint64, quantity *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(to, assetID, quantity)
}

// SetApprovalForAll grants or revokes operator rights over all of owner's units.
func (m *MockMultiToken) SetApprovalForAll(owner, operator string, approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.operators[owner] == nil {
		m.operators[owner] = make(map[string]bool)
	}
	m.operators[owner][operator] = approved
}

func (m *MockMultiToken) TransferFrom(spender, from, to string, assetID uint64, quantity *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spender != from && !m.operators[from][spender] {
		return fmt.Errorf("%w: %s may not move units of %s", ErrNotAuthorized, spender, from)
	}

	held := m.balanceLocked(from, assetID)
	if held.Cmp(quantity) < 0 {
		return fmt.Errorf("%w: %s holds %s of asset %d, wants to move %s",
			ErrInsufficientBalance, from, held, assetID, quantity)
	}

	held.Sub(held, quantity)
	m.credit(to, assetID, quantity)
	return nil
}

func (m *MockMultiToken) BalanceOf(owner string, assetID uint64) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balanceLocked(owner, assetID))
}

func (m *MockMultiToken) balanceLocked(owner string, assetID uint64) *big.Int {
	holders := m.balances[assetID]
	if holders == nil {
		holders = make(map[string]*big.Int)
		m.balances[assetID] = holders
	}
	if holders[owner] == nil {
		holders[owner] = new(big.Int)
	}
	return holders[owner]
}

func (m *MockMultiToken) credit(owner string, assetID uint64, quantity *big.Int) {
	bal := m.balanceLocked(owner, assetID)
	bal.Add(bal, quantity)
}

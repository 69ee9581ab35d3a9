package token

import (
	"fmt"
	"math/big"
	"sync"
)

// MockCurrency is an in-memory payment token with allowance accounting.
// Pulling funds on behalf of another holder consumes allowance; moving one's
// own funds does not.
type MockCurrency struct {
	mu         sync.Mutex
	balances   map[string]*big.Int
	allowances map[string]map[string]*big.Int
}

func NewMockCurrency() *MockCurrency {
	return &MockCurrency{
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]map[string]*big.Int),
	}
}

func (c *MockCurrency) Mint(recipient string, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bal := c.balanceLocked(recipient)
	bal.Add(bal, amount)
}

func (c *MockCurrency) BalanceOf(owner string) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balanceLocked(owner))
}

// Approve sets (not increments) the allowance of spender over owner's funds.
func (c *MockCurrency) Approve(owner, spender string, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allowances[owner] == nil {
		c.allowances[owner] = make(map[string]*big.Int)
	}
	c.allowances[owner][spender] = new(big.Int).Set(amount)
}

// Allowance reports the remaining amount spender may pull from owner.
func (c *MockCurrency) Allowance(owner, spender string) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	granted := c.allowances[owner][spender]
	if granted == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(granted)
}

func (c *MockCurrency) TransferFrom(spender, owner, recipient string, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if amount.Sign() < 0 {
		return fmt.Errorf("negative transfer amount %s", amount)
	}

	var granted *big.Int
	if spender != owner {
		granted = c.allowances[owner][spender]
		if granted == nil || granted.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s granted %s to %s, transfer of %s",
				ErrInsufficientAllowance, owner, granted, spender, amount)
		}
	}

	bal := c.balanceLocked(owner)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, transfer of %s",
			ErrInsufficientBalance, owner, bal, amount)
	}

	// Allowance is consumed only once the transfer is known to go through; a
	// rejected transfer leaves both balance and allowance untouched.
	if granted != nil {
		granted.Sub(granted, amount)
	}
	bal.Sub(bal, amount)
	dst := c.balanceLocked(recipient)
	dst.Add(dst, amount)
	return nil
}

func (c *MockCurrency) balanceLocked(owner string) *big.Int {
	if c.balances[owner] == nil {
		c.balances[owner] = new(big.Int)
	}
	return c.balances[owner]
}

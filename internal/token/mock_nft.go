package token

import (
	"fmt"
	"sync"
)

// MockNFT is an in-memory exclusive-ownership token contract with the custody
// rules of the on-chain equivalent: one owner per asset id, per-asset
// approvals that clear on transfer, and blanket operator approvals.
type MockNFT struct {
	mu        sync.Mutex
	owners    map[uint64]string
	approved  map[uint64]string
	operators map[string]map[string]bool
}

func NewMockNFT() *MockNFT {
	return &MockNFT{
		owners:    make(map[uint64]string),
		approved:  make(map[uint64]string),
		operators: make(map[string]map[string]bool),
	}
}

// Mint assigns a new asset id to `to`. Minting an existing id fails.
func (n *MockNFT) Mint(to string, assetID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.owners[assetID]; exists {
		return fmt.Errorf("asset %d already minted", assetID)
	}
	n.owners[assetID] = to
	return nil
}

// Approve grants spender transfer rights over a single asset id.
func (n *MockNFT) Approve(owner, spender string, assetID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	current, exists := n.owners[assetID]
	if !exists {
		return ErrUnknownAsset
	}
	if current != owner {
		return fmt.Errorf("%w: %s does not own asset %d", ErrNotAuthorized, owner, assetID)
	}
	n.approved[assetID] = spender
	return nil
}

// SetApprovalForAll grants or revokes operator rights over all of owner's assets.
func (n *MockNFT) SetApprovalForAll(owner, operator string, approvedFlag bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.operators[owner] == nil {
		n.operators[owner] = make(map[string]bool)
	}
	n.operators[owner][operator] = approvedFlag
}

func (n *MockNFT) TransferFrom(spender, from, to string, assetID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	owner, exists := n.owners[assetID]
	if !exists {
		return ErrUnknownAsset
	}
	if owner != from {
		return fmt.Errorf("%w: %s does not own asset %d", ErrNotAuthorized, from, assetID)
	}
	if spender != owner && n.approved[assetID] != spender && !n.operators[owner][spender] {
		return fmt.Errorf("%w: %s may not move asset %d", ErrNotAuthorized, spender, assetID)
	}
	delete(n.approved, assetID)
	n.owners[assetID] = to
	return nil
}

func (n *MockNFT) BalanceOf(owner string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	var count uint64
	for _, o := range n.owners {
		if o == owner {
			count++
		}
	}
	return count
}

func (n *MockNFT) OwnerOf(assetID uint64) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	owner, exists := n.owners[assetID]
	if !exists {
		return "", ErrUnknownAsset
	}
	return owner, nil
}

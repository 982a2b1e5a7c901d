package state

import (
	"slices"
	"sync"

	"github.com/alphabill-org/admission/types"
)

// Memory is an in-memory Store. Values are copied on the way in and out so
// callers never share mutable state with the store.
type Memory struct {
	mu        sync.RWMutex
	accounts  map[types.AccountID]Account
	contracts map[types.ContractID]*Contract
	records   map[types.ContractID][]types.TransactionRecord
}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[types.AccountID]Account),
		contracts: make(map[types.ContractID]*Contract),
		records:   make(map[types.ContractID][]types.TransactionRecord),
	}
}

func (m *Memory) Account(id types.AccountID) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, AccountNotFound(id)
	}
	return &acc, nil
}

func (m *Memory) Contract(id types.ContractID) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, ContractNotFound(id)
	}
	return c.Clone(), nil
}

func (m *Memory) ContractRecords(id types.ContractID) ([]types.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records[id]), nil
}

func (m *Memory) PutAccount(acc *Account) error {
	if err := acc.IsValid(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.ID] = *acc
	return nil
}

func (m *Memory) PutContract(c *Contract) error {
	if err := c.IsValid(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c.Clone()
	return nil
}

func (m *Memory) AddRecord(id types.ContractID, rec types.TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = append(m.records[id], rec)
	return nil
}

package state

import (
	"errors"
	"fmt"
	"maps"

	"github.com/alphabill-org/admission/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrNotFound = errors.New("not found")

type (
	// Account is a ledger account as seen by the admission layer: the key
	// which must sign the payer's transactions and the spendable balance.
	Account struct {
		ID      types.AccountID `cbor:"1,keyasint" yaml:"id"`
		Key     types.Bytes     `cbor:"2,keyasint,omitempty" yaml:"key"`
		Balance uint64          `cbor:"3,keyasint" yaml:"balance"`
		Deleted bool            `cbor:"4,keyasint,omitempty" yaml:"deleted,omitempty"`
	}

	// Contract is a smart contract instance. Storage maps the hex encoded
	// function parameters to the value a local call with these parameters
	// returns.
	Contract struct {
		ID              types.ContractID       `cbor:"1,keyasint" yaml:"id"`
		AdminKey        types.Bytes            `cbor:"2,keyasint,omitempty" yaml:"adminKey,omitempty"`
		Bytecode        types.Bytes            `cbor:"3,keyasint,omitempty" yaml:"bytecode,omitempty"`
		Storage         map[string]types.Bytes `cbor:"4,keyasint,omitempty" yaml:"storage,omitempty"`
		Balance         uint64                 `cbor:"5,keyasint" yaml:"balance"`
		ExpirationTime  types.Timestamp        `cbor:"6,keyasint" yaml:"expirationTime"`
		AutoRenewPeriod types.Duration         `cbor:"7,keyasint" yaml:"autoRenewPeriod"`
		Memo            string                 `cbor:"8,keyasint,omitempty" yaml:"memo,omitempty"`
		Deleted         bool                   `cbor:"9,keyasint,omitempty" yaml:"deleted,omitempty"`
	}

	// Reader is a read-only snapshot of the ledger entities. Lookups of
	// unknown entities return an error wrapping ErrNotFound.
	Reader interface {
		Account(id types.AccountID) (*Account, error)
		Contract(id types.ContractID) (*Contract, error)
		ContractRecords(id types.ContractID) ([]types.TransactionRecord, error)
	}

	Writer interface {
		PutAccount(acc *Account) error
		PutContract(c *Contract) error
		AddRecord(id types.ContractID, rec types.TransactionRecord) error
	}

	Store interface {
		Reader
		Writer
	}
)

// StorageKey returns the key under which the result of the call with given
// function parameters is kept in the contract storage.
func StorageKey(params []byte) string {
	return hexutil.Encode(params)
}

func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	cc := *c
	cc.Storage = maps.Clone(c.Storage)
	return &cc
}

// StorageSize is the number of bytes the contract keeps in its storage,
// keys and values.
func (c *Contract) StorageSize() uint64 {
	var size uint64
	for k, v := range c.Storage {
		if b, err := hexutil.Decode(k); err == nil {
			size += uint64(len(b))
		}
		size += uint64(len(v))
	}
	return size
}

// SolidityAddress is the 20 byte address of the contract in hex: shard
// (4 bytes), realm (8 bytes) and num (8 bytes).
func (c *Contract) SolidityAddress() string {
	return fmt.Sprintf("%08x%016x%016x", uint32(c.ID.Shard), uint64(c.ID.Realm), uint64(c.ID.Num))
}

func (c *Contract) Info() *types.ContractInfo {
	return &types.ContractInfo{
		ContractID:      c.ID,
		AccountID:       c.ID.AccountID(),
		AdminKey:        c.AdminKey,
		ExpirationTime:  c.ExpirationTime,
		AutoRenewPeriod: c.AutoRenewPeriod,
		StorageBytes:    c.StorageSize() + uint64(len(c.Bytecode)),
		Memo:            c.Memo,
		Balance:         c.Balance,
		SolidityAddress: c.SolidityAddress(),
	}
}

func (acc *Account) IsValid() error {
	if acc == nil {
		return errors.New("account is nil")
	}
	if !acc.ID.IsValid() {
		return fmt.Errorf("invalid account id %s", acc.ID)
	}
	return nil
}

func (c *Contract) IsValid() error {
	if c == nil {
		return errors.New("contract is nil")
	}
	if !c.ID.IsValid() {
		return fmt.Errorf("invalid contract id %s", c.ID)
	}
	for k := range c.Storage {
		if _, err := hexutil.Decode(k); err != nil {
			return fmt.Errorf("contract %s storage key %q: %w", c.ID, k, err)
		}
	}
	return nil
}

func AccountNotFound(id types.AccountID) error {
	return fmt.Errorf("account %s: %w", id, ErrNotFound)
}

func ContractNotFound(id types.ContractID) error {
	return fmt.Errorf("contract %s: %w", id, ErrNotFound)
}

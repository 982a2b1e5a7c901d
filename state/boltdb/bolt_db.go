package boltdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/types"
	bolt "go.etcd.io/bbolt"
)

var (
	accountsBucket  = []byte("accounts")
	contractsBucket = []byte("contracts")
	recordsBucket   = []byte("records")
)

type (
	EncodeFn func(v any) ([]byte, error)
	DecodeFn func(data []byte, v any) error

	// BoltDB is a state.Store persisted in a bolt database file. Entities
	// are keyed by their "shard.realm.num" id, one bucket per entity type.
	BoltDB struct {
		db      *bolt.DB
		encoder EncodeFn
		decoder DecodeFn
	}
)

var errNotFound = errors.New("db entry not found")

func New(dbFile string) (*BoltDB, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	s := &BoltDB{
		db:      db,
		encoder: types.Cbor.Marshal,
		decoder: types.Cbor.Unmarshal,
	}
	if err = s.createBuckets(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return s, nil
}

func (db *BoltDB) Path() string {
	return db.db.Path()
}

func (db *BoltDB) createBuckets() error {
	return db.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{accountsBucket, contractsBucket, recordsBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("creating bucket %s: %w", b, err)
			}
		}
		return nil
	})
}

func (db *BoltDB) Account(id types.AccountID) (*state.Account, error) {
	acc := &state.Account{}
	found, err := db.read(accountsBucket, []byte(id.String()), acc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, state.AccountNotFound(id)
	}
	return acc, nil
}

func (db *BoltDB) Contract(id types.ContractID) (*state.Contract, error) {
	c := &state.Contract{}
	found, err := db.read(contractsBucket, []byte(id.String()), c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, state.ContractNotFound(id)
	}
	return c, nil
}

func (db *BoltDB) ContractRecords(id types.ContractID) ([]types.TransactionRecord, error) {
	var recs []types.TransactionRecord
	if _, err := db.read(recordsBucket, []byte(id.String()), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (db *BoltDB) PutAccount(acc *state.Account) error {
	if err := acc.IsValid(); err != nil {
		return err
	}
	return db.write(accountsBucket, []byte(acc.ID.String()), acc)
}

func (db *BoltDB) PutContract(c *state.Contract) error {
	if err := c.IsValid(); err != nil {
		return err
	}
	return db.write(contractsBucket, []byte(c.ID.String()), c)
}

// AddRecord appends the record to the list of records of the contract in a
// single read-modify-write transaction.
func (db *BoltDB) AddRecord(id types.ContractID, rec types.TransactionRecord) error {
	key := []byte(id.String())
	if err := db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		var recs []types.TransactionRecord
		if data := b.Get(key); data != nil {
			if err := db.decoder(data, &recs); err != nil {
				return fmt.Errorf("decoding records: %w", err)
			}
		}
		data, err := db.encoder(append(recs, rec))
		if err != nil {
			return fmt.Errorf("encoding records: %w", err)
		}
		return b.Put(key, data)
	}); err != nil {
		return fmt.Errorf("bolt db add record failed, %w", err)
	}
	return nil
}

func (db *BoltDB) read(bucket, key []byte, v any) (bool, error) {
	if err := db.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return errNotFound
		}
		return db.decoder(data, v)
	}); err != nil {
		if errors.Is(err, errNotFound) {
			return false, nil
		}
		return true, fmt.Errorf("bolt db read failed, %w", err)
	}
	return true, nil
}

func (db *BoltDB) write(bucket, key []byte, v any) error {
	b, err := db.encoder(v)
	if err != nil {
		return err
	}
	if err = db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, b)
	}); err != nil {
		return fmt.Errorf("bolt db write failed, %w", err)
	}
	return nil
}

func (db *BoltDB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

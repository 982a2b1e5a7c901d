package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AccountID identifies an account as shard.realm.num.
type AccountID struct {
	_     struct{} `cbor:",toarray"`
	Shard int64    `json:"shard"`
	Realm int64    `json:"realm"`
	Num   int64    `json:"num"`
}

// ContractID identifies a smart contract instance as shard.realm.num.
type ContractID struct {
	_     struct{} `cbor:",toarray"`
	Shard int64    `json:"shard"`
	Realm int64    `json:"realm"`
	Num   int64    `json:"num"`
}

func NewAccountID(shard, realm, num int64) AccountID {
	return AccountID{Shard: shard, Realm: realm, Num: num}
}

func NewContractID(shard, realm, num int64) ContractID {
	return ContractID{Shard: shard, Realm: realm, Num: num}
}

func (id AccountID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Shard, id.Realm, id.Num)
}

// IsValid returns true when all parts of the id are non-negative and the
// entity number is not zero.
func (id AccountID) IsValid() bool {
	return id.Shard >= 0 && id.Realm >= 0 && id.Num > 0
}

func (id ContractID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Shard, id.Realm, id.Num)
}

func (id ContractID) IsValid() bool {
	return id.Shard >= 0 && id.Realm >= 0 && id.Num > 0
}

// AccountID returns the account backing the contract (contract and its
// account share the entity number).
func (id ContractID) AccountID() AccountID {
	return AccountID{Shard: id.Shard, Realm: id.Realm, Num: id.Num}
}

func ParseAccountID(s string) (AccountID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid account id: %w", err)
	}
	return AccountID{Shard: shard, Realm: realm, Num: num}, nil
}

func ParseContractID(s string) (ContractID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return ContractID{}, fmt.Errorf("invalid contract id: %w", err)
	}
	return ContractID{Shard: shard, Realm: realm, Num: num}, nil
}

func parseEntityID(s string) (shard, realm, num int64, err error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected shard.realm.num, got %q", s)
	}
	v := make([]int64, 3)
	for i, p := range parts {
		if v[i], err = strconv.ParseInt(p, 10, 64); err != nil {
			return 0, 0, 0, fmt.Errorf("parsing %q: %w", p, err)
		}
	}
	return v[0], v[1], v[2], nil
}

func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseAccountID(string(b))
	return err
}

func (id ContractID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ContractID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseContractID(string(b))
	return err
}

// Timestamp is seconds and nanoseconds since the Unix epoch.
type Timestamp struct {
	_       struct{} `cbor:",toarray"`
	Seconds int64
	Nanos   int32
}

func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

func (ts Timestamp) IsZero() bool {
	return ts.Seconds == 0 && ts.Nanos == 0
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", ts.Seconds, ts.Nanos)
}

// Duration is a whole number of seconds.
type Duration struct {
	_       struct{} `cbor:",toarray"`
	Seconds int64
}

func DurationOf(d time.Duration) Duration {
	return Duration{Seconds: int64(d / time.Second)}
}

func (d Duration) Std() time.Duration {
	return time.Duration(d.Seconds) * time.Second
}

/*
TransactionID is unique per payer and valid-start timestamp. It is the key
under which the submitted transactions are remembered for duplicate
detection.
*/
type TransactionID struct {
	_          struct{} `cbor:",toarray"`
	ValidStart Timestamp
	Payer      AccountID
}

var ErrMissingTransactionID = errors.New("transaction id is missing")

func (id TransactionID) IsZero() bool {
	return id.ValidStart.IsZero() && id.Payer == AccountID{}
}

func (id TransactionID) String() string {
	return id.Payer.String() + "@" + id.ValidStart.String()
}

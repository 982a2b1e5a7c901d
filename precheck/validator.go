package precheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/types"
)

const (
	DefaultMinValidDuration = 15 * time.Second
	DefaultMaxValidDuration = 180 * time.Second
	DefaultMaxMemoBytes     = 100
	// DefaultValidStartSkew is how far in the future the valid start of a
	// transaction may be, compared to the node's clock.
	DefaultValidStartSkew = 10 * time.Second
)

type (
	// DuplicateChecker reports whether a transaction with given id has
	// already been submitted.
	DuplicateChecker interface {
		IsDuplicate(id types.TransactionID) bool
	}

	Validator struct {
		node       types.AccountID
		state      state.Reader
		prices     fees.PricesProvider
		rates      fees.ExchangeRateProvider
		verifier   SignatureVerifier
		duplicates DuplicateChecker
		now        func() time.Time

		minValidDuration time.Duration
		maxValidDuration time.Duration
		validStartSkew   time.Duration
		maxMemoBytes     int
		log              *slog.Logger
	}

	Option func(*Validator)
)

func WithSignatureVerifier(sv SignatureVerifier) Option {
	return func(v *Validator) {
		v.verifier = sv
	}
}

func WithDuplicateChecker(dc DuplicateChecker) Option {
	return func(v *Validator) {
		v.duplicates = dc
	}
}

// WithClock sets the function returning the current time, it is used to check
// the transaction validity window.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func WithValidDurationBounds(minD, maxD time.Duration) Option {
	return func(v *Validator) {
		v.minValidDuration = minD
		v.maxValidDuration = maxD
	}
}

func WithMaxMemoBytes(n int) Option {
	return func(v *Validator) {
		v.maxMemoBytes = n
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) {
		v.log = log
	}
}

/*
NewValidator returns precheck validator of the node with given account.
Entity lookups are made against the state snapshot, required fees are
computed using the prices and exchange rates.
*/
func NewValidator(node types.AccountID, s state.Reader, prices fees.PricesProvider, rates fees.ExchangeRateProvider, opts ...Option) (*Validator, error) {
	if !node.IsValid() {
		return nil, fmt.Errorf("invalid node account id %s", node)
	}
	if s == nil {
		return nil, errors.New("state reader is nil")
	}
	if prices == nil {
		return nil, errors.New("prices provider is nil")
	}
	if rates == nil {
		return nil, errors.New("exchange rate provider is nil")
	}
	v := &Validator{
		node:             node,
		state:            s,
		prices:           prices,
		rates:            rates,
		verifier:         Ed25519Verifier{},
		duplicates:       noDuplicates{},
		now:              time.Now,
		minValidDuration: DefaultMinValidDuration,
		maxValidDuration: DefaultMaxValidDuration,
		validStartSkew:   DefaultValidStartSkew,
		maxMemoBytes:     DefaultMaxMemoBytes,
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.minValidDuration > v.maxValidDuration {
		return nil, fmt.Errorf("min valid duration %s is greater than max valid duration %s", v.minValidDuration, v.maxValidDuration)
	}
	return v, nil
}

func (v *Validator) NodeAccount() types.AccountID { return v.node }

/*
ValidateQuery checks the query header and the payer of the query payment.

Zero stake node can't collect payments so any query which requires payment
is rejected with INVALID_NODE_ACCOUNT before anything else is checked.
*/
func (v *Validator) ValidateQuery(ctx context.Context, q *types.Query, isStaked bool) types.ResponseCode {
	if !isStaked && requiresPayment(q) {
		return types.InvalidNodeAccount
	}
	kind := q.Kind()
	if kind == types.UnknownOperation {
		return types.NotSupported
	}
	hdr := q.Header()
	if hdr == nil {
		return types.MissingQueryHeader
	}
	if hdr.Payment == nil {
		if hdr.ResponseType.IsCostOnly() {
			return types.OK
		}
		return types.MissingQueryHeader
	}
	acc, err := types.NewTxnAccessor(hdr.Payment)
	if err != nil {
		v.log.DebugContext(ctx, "invalid query payment", logger.OpKind(kind), logger.Error(err))
		return types.InvalidTransactionBody
	}
	if acc.Kind() != types.CryptoTransfer {
		return types.InvalidTransaction
	}
	if code := v.checkPayer(ctx, acc.Payer()); code != types.OK {
		v.log.DebugContext(ctx, "query payer rejected", logger.OpKind(kind), logger.Code(code))
		return code
	}
	return types.OK
}

func requiresPayment(q *types.Query) bool {
	return !q.ResponseType().IsCostOnly()
}

/*
ValidateTransactionPreConsensus parses the transaction and runs the checks
of ValidateAccessor on it. When isQuery is true the transaction is a query
payment and must be a crypto transfer.
*/
func (v *Validator) ValidateTransactionPreConsensus(ctx context.Context, tx *types.Transaction, isQuery bool) types.TxnValidityAndFeeReq {
	acc, err := types.NewTxnAccessor(tx)
	if err != nil {
		v.log.DebugContext(ctx, "parsing transaction", logger.Error(err))
		return types.Validity(types.InvalidTransactionBody)
	}
	return v.ValidateAccessor(ctx, acc, isQuery)
}

/*
ValidateAccessor runs the pre-consensus checks of already parsed transaction.
The first failing check decides the result:
  - basic checks (transaction id, node account, validity window, memo);
  - amounts of a crypto transfer net to zero and debit the payer;
  - payer exists and is not deleted;
  - payer's signature;
  - offered transaction fee covers the fee of the transaction, on failure
    the required fee is returned together with INSUFFICIENT_TX_FEE;
  - payer can pay the offered fee;
  - transaction has not been submitted already.
*/
func (v *Validator) ValidateAccessor(ctx context.Context, acc *types.TxnAccessor, isQuery bool) types.TxnValidityAndFeeReq {
	body := acc.Body()
	if isQuery && acc.Kind() != types.CryptoTransfer {
		return types.Validity(types.InvalidTransaction)
	}
	if code := v.basicChecks(body); code != types.OK {
		v.log.DebugContext(ctx, "basic precheck failed", logger.TxID(body.TransactionID), logger.Code(code))
		return types.Validity(code)
	}
	if acc.Kind() == types.CryptoTransfer {
		if code := checkTransfers(body.CryptoTransfer, acc.Payer()); code != types.OK {
			v.log.DebugContext(ctx, "invalid transfer list", logger.TxID(body.TransactionID), logger.Code(code))
			return types.Validity(code)
		}
	}
	payer, err := v.state.Account(acc.Payer())
	if err != nil {
		return types.Validity(v.accountLookupFailure(ctx, acc.Payer(), err))
	}
	if payer.Deleted {
		return types.Validity(types.AccountDeleted)
	}
	if !v.verifier.HasNecessarySignatures(payer, acc.SignedTxn()) {
		v.log.DebugContext(ctx, "missing payer signature", logger.TxID(body.TransactionID))
		return types.Validity(types.InvalidSignature)
	}
	requiredFee, err := v.TransactionFee(acc)
	if err != nil {
		v.log.DebugContext(ctx, "estimating transaction fee", logger.TxID(body.TransactionID), logger.Error(err))
		return types.Validity(types.InvalidTransactionBody)
	}
	if body.TransactionFee < requiredFee {
		return types.NewTxnValidityAndFeeReq(types.InsufficientTxFee, requiredFee)
	}
	if payer.Balance < body.TransactionFee {
		return types.Validity(types.InsufficientPayerBalance)
	}
	if v.duplicates.IsDuplicate(body.TransactionID) {
		return types.Validity(types.DuplicateTransaction)
	}
	return types.Validity(types.OK)
}

// TransactionFee is the fee of the transaction in tiny units, priced as of
// the valid start of the transaction.
func (v *Validator) TransactionFee(acc *types.TxnAccessor) (uint64, error) {
	usage, err := fees.TransactionUsage(acc.Body(), acc.SigUsage(1))
	if err != nil {
		return 0, err
	}
	at := acc.TxID().ValidStart
	return fees.TotalFee(v.prices.PricesGiven(acc.Kind(), at), usage, v.rates.Rate(at)), nil
}

/*
ValidateScheduledFee checks that the fee payment transaction would pass the
precheck and that it pays at least requiredFee to this node. Required fee of
zero is always OK and the payment is not inspected at all.
*/
func (v *Validator) ValidateScheduledFee(ctx context.Context, kind types.OperationKind, payment *types.Transaction, requiredFee uint64) types.ResponseCode {
	if requiredFee == 0 {
		return types.OK
	}
	acc, err := types.NewTxnAccessor(payment)
	if err != nil {
		v.log.DebugContext(ctx, "invalid fee payment", logger.OpKind(kind), logger.Error(err))
		return types.InvalidTransactionBody
	}
	if r := v.ValidateAccessor(ctx, acc, true); !r.IsOK() {
		return r.Validity()
	}
	if paid := amountTo(acc.Body().CryptoTransfer, v.node); paid < requiredFee {
		v.log.DebugContext(ctx, fmt.Sprintf("fee payment pays %d to the node, required %d", paid, requiredFee), logger.OpKind(kind))
		return types.InsufficientTxFee
	}
	payer, err := v.state.Account(acc.Payer())
	if err != nil {
		return v.accountLookupFailure(ctx, acc.Payer(), err)
	}
	if payer.Balance < requiredFee || payer.Balance-requiredFee < acc.Body().TransactionFee {
		v.log.DebugContext(ctx, "payer can't pay scheduled fee", logger.OpKind(kind), logger.TxID(acc.TxID()))
		return types.InsufficientPayerBalance
	}
	return types.OK
}

// amountTo returns the sum credited to the account, saturating at MaxUint64.
func amountTo(ct *types.CryptoTransferBody, account types.AccountID) uint64 {
	var sum uint256.Int
	for _, aa := range ct.Transfers {
		if aa.AccountID == account && aa.Amount > 0 {
			sum.Add(&sum, uint256.NewInt(uint64(aa.Amount)))
		}
	}
	if !sum.IsUint64() {
		return math.MaxUint64
	}
	return sum.Uint64()
}

// ValidateContractExistence returns OK when the contract exists and is not
// deleted.
func (v *Validator) ValidateContractExistence(ctx context.Context, id *types.ContractID) types.ResponseCode {
	if id == nil || !id.IsValid() {
		return types.InvalidContractID
	}
	c, err := v.state.Contract(*id)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return types.InvalidContractID
		}
		v.log.WarnContext(ctx, "loading contract", logger.Error(err))
		return types.InvalidTransaction
	}
	if c.Deleted {
		return types.InvalidContractID
	}
	return types.OK
}

func (v *Validator) checkPayer(ctx context.Context, id types.AccountID) types.ResponseCode {
	if !id.IsValid() {
		return types.PayerAccountNotFound
	}
	acc, err := v.state.Account(id)
	if err != nil {
		return v.accountLookupFailure(ctx, id, err)
	}
	if acc.Deleted {
		return types.AccountDeleted
	}
	return types.OK
}

func (v *Validator) accountLookupFailure(ctx context.Context, id types.AccountID, err error) types.ResponseCode {
	if errors.Is(err, state.ErrNotFound) {
		return types.PayerAccountNotFound
	}
	v.log.WarnContext(ctx, fmt.Sprintf("loading account %s", id), logger.Error(err))
	return types.InvalidTransaction
}

type noDuplicates struct{}

func (noDuplicates) IsDuplicate(types.TransactionID) bool { return false }

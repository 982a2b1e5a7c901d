package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBody() TransactionBody {
	return TransactionBody{
		TransactionID:            TransactionID{ValidStart: Timestamp{Seconds: 100, Nanos: 5}, Payer: NewAccountID(0, 0, 1001)},
		NodeAccountID:            NewAccountID(0, 0, 3),
		TransactionFee:           500,
		TransactionValidDuration: Duration{Seconds: 120},
		Memo:                     "memo",
	}
}

func TestCbor_TransactionRoundTrip(t *testing.T) {
	contract := &ContractID{Num: 1234}
	testCases := []struct {
		kind OperationKind
		set  func(b *TransactionBody)
	}{
		{kind: CryptoTransfer, set: func(b *TransactionBody) {
			b.CryptoTransfer = &CryptoTransferBody{Transfers: []AccountAmount{
				{AccountID: NewAccountID(0, 0, 1001), Amount: -10},
				{AccountID: NewAccountID(0, 0, 3), Amount: 10},
			}}
		}},
		{kind: ContractCreate, set: func(b *TransactionBody) {
			b.ContractCreateInstance = &ContractCreateBody{InitCode: []byte{0x60, 0x80}, Gas: 100, AutoRenewPeriod: &Duration{Seconds: 7776000}}
		}},
		{kind: ContractCall, set: func(b *TransactionBody) {
			b.ContractCall = &ContractCallBody{ContractID: contract, Gas: 10, Amount: 1, FunctionParameters: []byte{1, 2}}
		}},
		{kind: ContractUpdate, set: func(b *TransactionBody) {
			memo := "renamed"
			b.ContractUpdateInstance = &ContractUpdateBody{ContractID: contract, ExpirationTime: &Timestamp{Seconds: 200}, Memo: &memo}
		}},
		{kind: ContractDelete, set: func(b *TransactionBody) {
			b.ContractDeleteInstance = &ContractDeleteBody{ContractID: contract, TransferAccountID: &AccountID{Num: 1001}}
		}},
		{kind: SystemDelete, set: func(b *TransactionBody) {
			b.SystemDelete = &SystemDeleteBody{ContractID: contract, ExpirationTime: Timestamp{Seconds: 300}}
		}},
		{kind: SystemUndelete, set: func(b *TransactionBody) {
			b.SystemUndelete = &SystemUndeleteBody{ContractID: contract}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			body := testBody()
			tc.set(&body)
			bodyBytes, err := Cbor.Marshal(body)
			require.NoError(t, err)

			tx := Transaction{
				BodyBytes: bodyBytes,
				SigMap:    []SignaturePair{{PubKey: []byte{1, 2, 3}, Signature: []byte{4, 5, 6}}},
			}
			txBytes, err := Cbor.Marshal(tx)
			require.NoError(t, err)

			var decodedTx Transaction
			require.NoError(t, Cbor.Unmarshal(txBytes, &decodedTx))
			require.Equal(t, tx, decodedTx)

			var decoded TransactionBody
			require.NoError(t, Cbor.Unmarshal(decodedTx.BodyBytes, &decoded))
			require.Equal(t, body, decoded)
			kind, err := decoded.Kind()
			require.NoError(t, err)
			require.Equal(t, tc.kind, kind)
		})
	}

	t.Run("body without operation", func(t *testing.T) {
		b, err := Cbor.Marshal(testBody())
		require.NoError(t, err)
		var decoded TransactionBody
		require.NoError(t, Cbor.Unmarshal(b, &decoded))
		_, err = decoded.Kind()
		require.ErrorIs(t, err, ErrNoOperation)
	})
}

func TestCbor_QueryRoundTrip(t *testing.T) {
	payment := &Transaction{BodyBytes: []byte{0xa0}, SigMap: []SignaturePair{{PubKey: []byte{1}, Signature: []byte{2}}}}
	testCases := []struct {
		query Query
		kind  OperationKind
	}{
		{
			query: Query{ContractCallLocal: &ContractCallLocalQuery{
				Header:             &QueryHeader{Payment: payment, ResponseType: CostAnswer},
				ContractID:         &ContractID{Num: 1234},
				Gas:                50_000,
				FunctionParameters: []byte{0xca, 0xfe},
				MaxResultSize:      1024,
			}},
			kind: ContractCallLocal,
		},
		{
			query: Query{ContractGetInfo: &ContractGetInfoQuery{Header: &QueryHeader{Payment: payment}, ContractID: &ContractID{Num: 1}}},
			kind:  ContractGetInfo,
		},
		{
			query: Query{ContractGetBytecode: &ContractGetBytecodeQuery{ContractID: &ContractID{Num: 2}}},
			kind:  ContractGetBytecode,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			b, err := Cbor.Marshal(tc.query)
			require.NoError(t, err)
			var decoded Query
			require.NoError(t, Cbor.Unmarshal(b, &decoded))
			require.Equal(t, tc.query, decoded)
			require.Equal(t, tc.kind, decoded.Kind())
		})
	}

	t.Run("empty query has no kind", func(t *testing.T) {
		var decoded Query
		require.NoError(t, Cbor.Unmarshal([]byte{0xa0}, &decoded))
		require.Equal(t, UnknownOperation, decoded.Kind())
	})
}

func TestCbor_ResponseRoundTrip(t *testing.T) {
	hdr := ResponseHeader{NodeTransactionPrecheckCode: OK, ResponseType: AnswerOnly, Cost: 25}
	rsp := &Response{ContractGetRecords: &ContractGetRecordsResponse{
		Header:     hdr,
		ContractID: &ContractID{Num: 1234},
		Records: []TransactionRecord{{
			TransactionID:      TransactionID{ValidStart: Timestamp{Seconds: 100}, Payer: NewAccountID(0, 0, 1001)},
			ConsensusTimestamp: Timestamp{Seconds: 101, Nanos: 7},
			TransactionFee:     500,
			Status:             OK,
			CallResult:         &ContractFunctionResult{ContractID: ContractID{Num: 1234}, ContractCallResult: []byte{1}, GasUsed: 21000},
		}},
	}}
	b, err := Cbor.Marshal(rsp)
	require.NoError(t, err)
	var decoded Response
	require.NoError(t, Cbor.Unmarshal(b, &decoded))
	require.Equal(t, rsp, &decoded)
	require.Equal(t, hdr, decoded.Header())

	t.Run("header only", func(t *testing.T) {
		hdr := ResponseHeader{NodeTransactionPrecheckCode: InsufficientTxFee, ResponseType: CostAnswer, Cost: 500}
		b, err := Cbor.Marshal(HeaderOnlyResponse(ContractCallLocal, hdr))
		require.NoError(t, err)
		var decoded Response
		require.NoError(t, Cbor.Unmarshal(b, &decoded))
		require.Equal(t, hdr, decoded.Header())
		require.Nil(t, decoded.ContractCallLocal.FunctionResult)
	})

	t.Run("header is encoded as array", func(t *testing.T) {
		b, err := Cbor.Marshal(ResponseHeader{NodeTransactionPrecheckCode: InsufficientTxFee, ResponseType: CostAnswer, Cost: 500})
		require.NoError(t, err)
		require.Equal(t, []byte{0x83, 0x09, 0x02, 0x19, 0x01, 0xf4}, b)
	})
}

func TestCbor_Deterministic(t *testing.T) {
	body := testBody()
	body.ContractCall = &ContractCallBody{ContractID: &ContractID{Num: 1234}, Gas: 10, FunctionParameters: []byte{1, 2}}
	a, err := Cbor.Marshal(body)
	require.NoError(t, err)
	b, err := Cbor.Marshal(body)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// keys are sorted by the encoder, the fee (key 3) comes before the memo (key 5)
	require.Less(t, bytes.Index(a, []byte{0x03, 0x19, 0x01, 0xf4}), bytes.Index(a, []byte{0x05, 0x64, 'm', 'e', 'm', 'o'}))
}

func TestCbor_InvalidInput(t *testing.T) {
	valid, err := Cbor.Marshal(testBody())
	require.NoError(t, err)

	t.Run("empty input", func(t *testing.T) {
		var body TransactionBody
		require.ErrorContains(t, Cbor.Unmarshal(nil, &body), "EOF")
		require.Equal(t, TransactionBody{}, body)
	})

	t.Run("truncated body", func(t *testing.T) {
		var body TransactionBody
		require.ErrorContains(t, Cbor.Unmarshal(valid[:len(valid)-1], &body), "unexpected EOF")
	})

	t.Run("transaction is not array", func(t *testing.T) {
		var tx Transaction
		require.ErrorContains(t, Cbor.Unmarshal(valid, &tx), "cannot unmarshal map into Go value of type types.Transaction")
	})

	t.Run("duplicate field of body", func(t *testing.T) {
		// {3: 1, 3: 2}, transaction fee set twice
		var body TransactionBody
		require.ErrorContains(t, Cbor.Unmarshal([]byte{0xa2, 0x03, 0x01, 0x03, 0x02}, &body), "cbor: found duplicate map key")
	})

	t.Run("nested too deep", func(t *testing.T) {
		data := append(bytes.Repeat([]byte{0x81}, 40), 0x00)
		var v any
		require.ErrorContains(t, Cbor.Unmarshal(data, &v), "exceeded max nested level")
	})
}

func TestCbor_Stream(t *testing.T) {
	txs := []Transaction{
		{BodyBytes: []byte{0xa0}, SigMap: []SignaturePair{{PubKey: []byte{1}, Signature: []byte{2}}}},
		{BodyBytes: []byte{0xa1, 0x03, 0x01}, SigMap: []SignaturePair{{PubKey: []byte{3}, Signature: []byte{4}}}},
	}
	buf := new(bytes.Buffer)
	enc, err := Cbor.GetEncoder(buf)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(txs[0]))
	require.NoError(t, Cbor.Encode(buf, txs[1]))

	dec := Cbor.GetDecoder(bytes.NewReader(buf.Bytes()))
	for _, want := range txs {
		var got Transaction
		require.NoError(t, dec.Decode(&got))
		require.Equal(t, want, got)
	}
	var extra Transaction
	require.ErrorContains(t, dec.Decode(&extra), "EOF")

	var first Transaction
	require.NoError(t, Cbor.Decode(bytes.NewReader(buf.Bytes()), &first))
	require.Equal(t, txs[0], first)
}

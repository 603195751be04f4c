// Package txcodec decodes the transport form of chain transactions.
//
// Every transaction travels as base64 over JSON. Decoding is lenient: absent
// fields take their zero value and numbers may arrive as floats or strings.
// Only bytes that cannot be turned into a JSON object are rejected.
package txcodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/wx-shi/shadow-ledger/internal/model"
)

var ErrMalformedTransaction = errors.New("txcodec: malformed transaction")

// DecodeSigned decodes one entry of a block's txs list.
func DecodeSigned(encoded []byte) (*model.SignedTransaction, error) {
	raw, err := transportDecode(encoded)
	if err != nil {
		return nil, err
	}
	fields, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	// coinbase payloads are base64 strings; wallet-built ones may be inline objects
	if inline, ok := fields["transaction"].(map[string]interface{}); ok {
		b, err := json.Marshal(inline)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
		}
		fields["transaction"] = string(b)
	}

	tx := &model.SignedTransaction{}
	if err := weakDecode(fields, tx); err != nil {
		return nil, err
	}
	if sig, ok := fields["signature"].(string); ok {
		tx.Signature = decodeSignature(sig)
	}
	return tx, nil
}

// DecodeInner decodes the payload carried in SignedTransaction.Transaction.
func DecodeInner(payload []byte) (*model.InnerTransaction, error) {
	raw := bytes.TrimSpace(payload)
	if len(raw) == 0 || raw[0] != '{' {
		var err error
		if raw, err = transportDecode(raw); err != nil {
			return nil, err
		}
	}
	fields, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	tx := &model.InnerTransaction{}
	if err := weakDecode(fields, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// EncodeSigned is the inverse of DecodeSigned, used to build fixtures and payloads.
func EncodeSigned(tx *model.SignedTransaction) (string, error) {
	payload := map[string]interface{}{
		"algorithm":   tx.Algorithm,
		"signer_key":  tx.SignerKey,
		"transaction": tx.Transaction,
		"signature":   base64.StdEncoding.EncodeToString(tx.Signature),
	}
	if tx.TxHash != "" {
		payload["tx_hash"] = tx.TxHash
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// EncodeInner renders an inner transaction in its base64 transport form.
func EncodeInner(tx *model.InnerTransaction) (string, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func transportDecode(encoded []byte) ([]byte, error) {
	encoded = bytes.TrimSpace(encoded)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(out, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrMalformedTransaction, err)
	}
	return out[:n], nil
}

func parseObject(raw []byte) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrMalformedTransaction, err)
	}
	return fields, nil
}

func weakDecode(fields map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       jsonNumberHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	return nil
}

// decodeSignature keeps the raw text when the signature is not base64.
func decodeSignature(sig string) []byte {
	if b, err := base64.StdEncoding.DecodeString(sig); err == nil {
		return b
	}
	return []byte(sig)
}

package model

// Algorithm tags carried by signed transactions.
const (
	AlgorithmCoinbase = "coinbase"
)

// Block is one height of the remote chain with its still-encoded transactions.
type Block struct {
	Height int64    `json:"height"`
	Txs    []string `json:"txs"`
}

// SignedTransaction is the outer envelope of every chain transaction.
type SignedTransaction struct {
	Algorithm   string `json:"algorithm" mapstructure:"algorithm"`
	SignerKey   string `json:"signer_key" mapstructure:"signer_key"`
	Transaction string `json:"transaction" mapstructure:"transaction"`
	Signature   []byte `json:"signature" mapstructure:"-"`
	TxHash      string `json:"tx_hash,omitempty" mapstructure:"tx_hash"`
}

// IsCoinbase reports whether the transaction issues a reward.
func (t *SignedTransaction) IsCoinbase() bool {
	return t.Algorithm == AlgorithmCoinbase
}

type InnerTransaction struct {
	Version   int       `json:"version" mapstructure:"version"`
	Inputs    []Input   `json:"inputs" mapstructure:"inputs"`
	Outputs   []Output  `json:"outputs" mapstructure:"outputs"`
	Locktime  uint32    `json:"locktime" mapstructure:"locktime"`
	Timestamp string    `json:"timestamp" mapstructure:"timestamp"`
	TokenOps  []TokenOp `json:"token_ops,omitempty" mapstructure:"token_ops"`
}

type Input struct {
	TxID      string `json:"txid" mapstructure:"txid"`
	Vout      uint32 `json:"vout" mapstructure:"vout"`
	ScriptSig string `json:"script_sig" mapstructure:"script_sig"`
	Sequence  uint32 `json:"sequence" mapstructure:"sequence"`
}

type Output struct {
	Value        uint64 `json:"value" mapstructure:"value"`
	ScriptPubkey string `json:"script_pubkey,omitempty" mapstructure:"script_pubkey"`
	Address      string `json:"address" mapstructure:"address"`
}

// TokenOpTransfer is the only token operation a send can carry.
const TokenOpTransfer = "transfer"

type TokenOp struct {
	Type    string `json:"type" mapstructure:"type"`
	TokenID string `json:"token_id" mapstructure:"token_id"`
	From    string `json:"from" mapstructure:"from"`
	To      string `json:"to" mapstructure:"to"`
	Amount  uint64 `json:"amount" mapstructure:"amount"`
}

// SpendableCandidate is an unspent output the sender may use as an input.
type SpendableCandidate struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Value         uint64 `json:"value"`
	Address       string `json:"address"`
	Confirmations int    `json:"confirmations"`
}

// AddressBalance is derived from coinbase history, never written back to the chain.
type AddressBalance struct {
	Address     string `json:"address"`
	Value       uint64 `json:"value"`
	RewardCount uint64 `json:"reward_count"`
}

// SpendPlan is the coin selector's answer to a send request.
type SpendPlan struct {
	Selected  []SpendableCandidate `json:"selected"`
	Recipient Output               `json:"recipient"`
	Change    *Output              `json:"change,omitempty"`
	Fee       uint64               `json:"fee"`
	Total     uint64               `json:"total"`
}

// TxRecord is the unsigned record handed to the signer.
type TxRecord struct {
	Version   int       `json:"version"`
	Inputs    []Input   `json:"inputs"`
	Outputs   []Output  `json:"outputs"`
	Locktime  uint32    `json:"locktime"`
	Timestamp string    `json:"timestamp"`
	TokenOps  []TokenOp `json:"token_ops,omitempty"`
}

// Signature is what an external signer returns for a TxRecord.
type Signature struct {
	TxID      string `json:"txid"`
	Signature string `json:"signature"`
	SignerKey string `json:"signer_key"`
	Algorithm string `json:"algorithm"`
}

// SignedRecord is the broadcast payload.
type SignedRecord struct {
	Transaction TxRecord `json:"transaction"`
	Signature   string   `json:"signature"`
	TxHash      string   `json:"tx_hash"`
	SignerKey   string   `json:"signer_key"`
	Algorithm   string   `json:"algorithm"`
}

type Receipt struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TxHash  string `json:"tx_hash"`
}

// Defect kinds recorded while scanning.
const (
	DefectUnavailable = "unavailable"
	DefectNotFound    = "not_found"
	DefectMalformed   = "malformed"
)

// ScanDefect records a height (and optionally a tx index) that did not contribute to a scan.
// TxIndex is -1 when the whole block was skipped.
type ScanDefect struct {
	Height  int64  `json:"height"`
	TxIndex int    `json:"tx_index"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type BalanceReply struct {
	Address               string  `json:"address"`
	Balance               float64 `json:"balance"`
	BalanceSatoshis       uint64  `json:"balance_satoshis"`
	Confirmed             float64 `json:"confirmed"`
	ConfirmedSatoshis     uint64  `json:"confirmed_satoshis"`
	Unconfirmed           float64 `json:"unconfirmed"`
	UnconfirmedSatoshis   uint64  `json:"unconfirmed_satoshis"`
	TotalReceived         float64 `json:"total_received"`
	TotalReceivedSatoshis uint64  `json:"total_received_satoshis"`
	TotalSent             float64 `json:"total_sent"`
	TotalSentSatoshis     uint64  `json:"total_sent_satoshis"`
	TransactionCount      uint64  `json:"transaction_count"`
	LastActivity          string  `json:"last_activity"`
}

type HeightReply struct {
	StoreHeight int64 `json:"store_height"`
	NodeHeight  int64 `json:"node_height"`
}

type DefectsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type DefectsReply struct {
	Page      int          `json:"page"`
	PageSize  int          `json:"page_size"`
	TotalSize int          `json:"total_size"`
	Defects   []ScanDefect `json:"defects"`
}

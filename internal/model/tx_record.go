package model

import "time"

// Transaction statuses recorded for submitted writes.
const (
	TxStatusSuccess  = "success"
	TxStatusReverted = "reverted"
	TxStatusFailed   = "failed"
)

// TxRecord summarizes a submitted contract write.
type TxRecord struct {
	Contract    string    `json:"contract"`
	Method      string    `json:"method"`
	From        string    `json:"from,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	BlockNumber uint64    `json:"block_number,omitempty"`
	GasUsed     uint64    `json:"gas_used,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

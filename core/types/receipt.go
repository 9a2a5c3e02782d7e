package types

import (
	"github.com/Hazem-dh/FHEarts/common"
)

const (
	// ReceiptStatusFailed is the status code of an operation if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of an operation if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the result of applying an operation to the ledger.
type Receipt struct {
	OpHash common.Hash    `json:"opHash"`
	From   common.Address `json:"from"`
	Nonce  uint64         `json:"nonce"`
	Status uint64         `json:"status"`
	Err    string         `json:"error,omitempty"`
	Logs   []*Log         `json:"logs"`
}

// Succeeded reports whether the operation committed.
func (r *Receipt) Succeeded() bool { return r.Status == ReceiptStatusSuccessful }

// FindLog returns the first log carrying the given event id, or nil.
func (r *Receipt) FindLog(event common.Hash) *Log {
	for _, l := range r.Logs {
		if len(l.Topics) > 0 && l.Topics[0] == event {
			return l
		}
	}
	return nil
}

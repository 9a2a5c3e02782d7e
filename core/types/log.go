package types

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/common/hexutil"
)

// Log represents an event emitted by an operation. The first topic is the
// event signature hash; further topics index the identities involved.
type Log struct {
	// address of the component that emitted the event
	Address common.Address `json:"address"`
	// list of topics provided by the component
	Topics []common.Hash `json:"topics"`
	// supplied by the component, usually ABI-style 32 byte words
	Data hexutil.Bytes `json:"data"`

	// Derived fields. These fields are filled in by the ledger
	// but not secured by consensus.
	// hash of the operation
	OpHash common.Hash `json:"opHash"`
	// index of the log in the receipt
	Index uint `json:"logIndex"`
}

// EventID returns the topic identifying an event by its name.
func EventID(name string) common.Hash {
	return common.BytesToHash(keccak256([]byte(name)))
}

// Package rawdb contains the low level database accessors of the ledger.
package rawdb

import "github.com/Hazem-dh/FHEarts/common"

var (
	// opCountKey tracks the number of operations applied to the ledger.
	opCountKey = []byte("OpCount")

	receiptPrefix = []byte("r") // receiptPrefix + opHash -> receipt

	// CiphertextPrefix namespaces the coprocessor's sealed ciphertexts when
	// it shares the ledger's database.
	CiphertextPrefix = "fhe-"
)

// receiptKey = receiptPrefix + opHash
func receiptKey(hash common.Hash) []byte {
	return append(append([]byte{}, receiptPrefix...), hash.Bytes()...)
}

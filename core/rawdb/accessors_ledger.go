package rawdb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matchdb"
)

// ReadReceipt retrieves the receipt of an applied operation, or nil.
func ReadReceipt(db matchdb.KeyValueReader, hash common.Hash) *types.Receipt {
	data, _ := db.Get(receiptKey(hash))
	if len(data) == 0 {
		return nil
	}
	receipt := new(types.Receipt)
	if err := json.Unmarshal(data, receipt); err != nil {
		log.Error("Invalid receipt JSON", "hash", hash, "err", err)
		return nil
	}
	return receipt
}

// WriteReceipt stores the receipt of an applied operation.
func WriteReceipt(db matchdb.KeyValueWriter, receipt *types.Receipt) {
	data, err := json.Marshal(receipt)
	if err != nil {
		log.Crit("Failed to encode receipt", "err", err)
	}
	if err := db.Put(receiptKey(receipt.OpHash), data); err != nil {
		log.Crit("Failed to store receipt", "err", err)
	}
}

// HasReceipt checks if a receipt for the operation is present.
func HasReceipt(db matchdb.KeyValueReader, hash common.Hash) bool {
	ok, _ := db.Has(receiptKey(hash))
	return ok
}

// ReadOpCount retrieves the number of applied operations.
func ReadOpCount(db matchdb.KeyValueReader) uint64 {
	data, _ := db.Get(opCountKey)
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// WriteOpCount stores the number of applied operations.
func WriteOpCount(db matchdb.KeyValueWriter, count uint64) {
	var enc [8]byte
	binary.BigEndian.PutUint64(enc[:], count)
	if err := db.Put(opCountKey, enc[:]); err != nil {
		log.Crit("Failed to store operation count", "err", err)
	}
}

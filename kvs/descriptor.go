package kvs

import "github.com/Priyanshu23/flashkv/index"

// indexDescriptor builds the in-RAM descriptor recorded for a just-written
// entry.
func indexDescriptor(hash uint32, txID uint32, addr uint32, deleted bool) index.Descriptor {
	state := index.StateValid
	if deleted {
		state = index.StateDeleted
	}
	return index.Descriptor{
		KeyHash:       hash,
		TransactionID: txID,
		Address:       addr,
		State:         state,
	}
}

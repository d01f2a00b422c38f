package bplustree

import (
	"encoding/binary"

	"github.com/nikhilrp/anchordb/core/storage/page"
)

// headerPage is the single persisted page whose only field is the
// current root's page id, per spec.md §3's "B+ tree header page".
type headerPage struct {
	rootID page.ID
}

func decodeHeaderPage(buf []byte) headerPage {
	return headerPage{rootID: page.ID(binary.LittleEndian.Uint64(buf[:8]))}
}

func (h headerPage) encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[:8], uint64(h.rootID))
}

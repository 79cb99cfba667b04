package bplus

import (
	"bytes"
	"encoding/binary"

	"StratumDB/pager"

	"github.com/cockroachdb/errors"
)

// Checkpoint record layout (32 bytes, little endian):
// magic(4) version(2) reserved(2) branchingFactor(4) height(4) entries(8) root(8)
const (
	checkpointSize    = 32
	checkpointVersion = 1
)

var checkpointMagic = []byte("CKPT")

type checkpointRecord struct {
	BranchingFactor int
	Height          int
	Entries         int64
	Root            pager.Addr
}

func encodeCheckpoint(c checkpointRecord) []byte {
	buf := make([]byte, checkpointSize)
	copy(buf[0:4], checkpointMagic)
	binary.LittleEndian.PutUint16(buf[4:6], checkpointVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(c.BranchingFactor))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(c.Height))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(c.Entries))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(c.Root))
	return buf
}

func decodeCheckpoint(data []byte) (checkpointRecord, error) {
	var c checkpointRecord
	if len(data) != checkpointSize || !bytes.Equal(data[0:4], checkpointMagic) {
		return c, errors.New("not a checkpoint record")
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != checkpointVersion {
		return c, errors.Newf("unsupported checkpoint version %d", v)
	}
	c.BranchingFactor = int(binary.LittleEndian.Uint32(data[8:12]))
	c.Height = int(binary.LittleEndian.Uint32(data[12:16]))
	c.Entries = int64(binary.LittleEndian.Uint64(data[16:24]))
	c.Root = pager.Addr(binary.LittleEndian.Uint64(data[24:32]))
	if c.Root == pager.NullAddr || c.Height < 1 {
		return c, errors.Newf("checkpoint has root %s and height %d", c.Root, c.Height)
	}
	return c, nil
}

// Checkpoint writes every dirty node, then a checkpoint record, and commits
// that record as the store root. Addresses of superseded nodes are released
// only once the commit succeeded, so the previous checkpoint stays readable
// until then. It returns the address of the checkpoint record.
func (t *BPlusTree) Checkpoint() (pager.Addr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkMutable(); err != nil {
		return pager.NullAddr, err
	}
	if t.store == nil {
		return pager.NullAddr, ErrTransient
	}

	root := t.rootNode()
	if root.dirty {
		if err := t.writeBack(root); err != nil {
			return pager.NullAddr, t.latch(err)
		}
	}

	record := encodeCheckpoint(checkpointRecord{
		BranchingFactor: t.bf,
		Height:          t.height,
		Entries:         t.entries,
		Root:            root.identity,
	})
	addr, err := t.store.Write(record)
	if err != nil {
		return pager.NullAddr, t.latch(errors.Wrap(err, "failed to write checkpoint record"))
	}
	if err := t.store.Commit(addr); err != nil {
		return pager.NullAddr, t.latch(errors.Wrap(err, "failed to commit checkpoint"))
	}

	frees := t.pendingFrees
	if t.checkpoint != pager.NullAddr {
		frees = append(frees, t.checkpoint)
	}
	for _, a := range frees {
		if err := t.store.Delete(a); err != nil {
			t.log.Warn().Err(err).Stringer("addr", a).Msg("failed to release superseded record")
		}
	}
	t.pendingFrees = nil
	t.checkpoint = addr

	t.log.Info().
		Stringer("checkpoint", addr).
		Stringer("root", root.identity).
		Int64("entries", t.entries).
		Int("height", t.height).
		Int("released", len(frees)).
		Msg("checkpoint committed")
	return addr, nil
}

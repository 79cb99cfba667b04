package bplus

import (
	"encoding/binary"

	"StratumDB/pager"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// NodeCodec turns nodes into records and back. Decode returns a clean node
// whose identity is addr.
type NodeCodec interface {
	Encode(n *Node) ([]byte, error)
	Decode(addr pager.Addr, data []byte) (*Node, error)
}

// BinaryCodec is the default record format.
// Format:
//   - kind(1)
//   - nkeys (uvarint)
//   - keys: length (uvarint) + bytes
//   - leaf: values, length (uvarint) + bytes
//   - internal: nkeys+1 child addresses, 8 bytes little endian each
//
// Decoded keys and values alias data.
type BinaryCodec struct{}

func (BinaryCodec) Encode(n *Node) ([]byte, error) {
	size := 1 + binary.MaxVarintLen64
	for _, k := range n.keys {
		size += binary.MaxVarintLen32 + len(k)
	}
	for _, v := range n.values {
		size += binary.MaxVarintLen32 + len(v)
	}
	size += 8 * len(n.children)

	buf := make([]byte, 0, size)
	buf = append(buf, byte(n.kind))
	buf = binary.AppendUvarint(buf, uint64(len(n.keys)))
	for _, k := range n.keys {
		buf = binary.AppendUvarint(buf, uint64(len(k)))
		buf = append(buf, k...)
	}

	switch n.kind {
	case KindLeaf:
		if len(n.values) != len(n.keys) {
			return nil, errors.AssertionFailedf("leaf has %d keys and %d values", len(n.keys), len(n.values))
		}
		for _, v := range n.values {
			buf = binary.AppendUvarint(buf, uint64(len(v)))
			buf = append(buf, v...)
		}
	case KindInternal:
		if len(n.children) != len(n.keys)+1 {
			return nil, errors.AssertionFailedf("node has %d keys and %d children", len(n.keys), len(n.children))
		}
		for i, c := range n.children {
			// a child must be written before its parent
			if c.addr == pager.NullAddr {
				return nil, errors.AssertionFailedf("child %d of node is not written", i)
			}
			buf = binary.LittleEndian.AppendUint64(buf, uint64(c.addr))
		}
	default:
		return nil, errors.AssertionFailedf("unknown node kind %d", n.kind)
	}
	return buf, nil
}

func (BinaryCodec) Decode(addr pager.Addr, data []byte) (*Node, error) {
	if len(data) < 2 {
		return nil, errors.Newf("record too short: %d bytes", len(data))
	}
	n := &Node{kind: NodeKind(data[0]), identity: addr, coded: data}
	if n.kind != KindLeaf && n.kind != KindInternal {
		return nil, errors.Newf("unknown node kind %d", data[0])
	}
	off := 1

	readBytes := func(what string, i int) ([]byte, error) {
		l, w := binary.Uvarint(data[off:])
		if w <= 0 {
			return nil, errors.Newf("bad %s %d length", what, i)
		}
		off += w
		if uint64(len(data)-off) < l {
			return nil, errors.Newf("record overflow while reading %s %d", what, i)
		}
		b := data[off : off+int(l) : off+int(l)]
		off += int(l)
		return b, nil
	}

	nkeys, w := binary.Uvarint(data[off:])
	if w <= 0 || nkeys > uint64(len(data)) {
		return nil, errors.Newf("bad key count")
	}
	off += w

	n.keys = make([][]byte, 0, nkeys)
	for i := 0; i < int(nkeys); i++ {
		k, err := readBytes("key", i)
		if err != nil {
			return nil, err
		}
		n.keys = append(n.keys, k)
	}

	if n.kind == KindLeaf {
		n.values = make([][]byte, 0, nkeys)
		for i := 0; i < int(nkeys); i++ {
			v, err := readBytes("value", i)
			if err != nil {
				return nil, err
			}
			n.values = append(n.values, v)
		}
	} else {
		n.children = make([]childRef, 0, nkeys+1)
		for i := 0; i <= int(nkeys); i++ {
			if off+8 > len(data) {
				return nil, errors.Newf("record overflow while reading child %d", i)
			}
			n.children = append(n.children, childRef{addr: pager.Addr(binary.LittleEndian.Uint64(data[off:]))})
			off += 8
		}
	}
	if off != len(data) {
		return nil, errors.Newf("%d trailing bytes in record", len(data)-off)
	}
	return n, nil
}

// SnappyCodec compresses the records of another codec.
type SnappyCodec struct {
	Inner NodeCodec
}

func NewSnappyCodec(inner NodeCodec) SnappyCodec {
	if inner == nil {
		inner = BinaryCodec{}
	}
	return SnappyCodec{Inner: inner}
}

func (c SnappyCodec) Encode(n *Node) ([]byte, error) {
	raw, err := c.Inner.Encode(n)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func (c SnappyCodec) Decode(addr pager.Addr, data []byte) (*Node, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress record")
	}
	n, err := c.Inner.Decode(addr, raw)
	if err != nil {
		return nil, err
	}
	n.coded = data
	return n, nil
}

package bplus

import (
	"testing"

	"StratumDB/pager"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNode(t *testing.T) {
	codecs := map[string]NodeCodec{
		"binary": BinaryCodec{},
		"snappy": NewSnappyCodec(nil),
	}
	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			leaf := &Node{
				kind:   KindLeaf,
				keys:   [][]byte{[]byte("key1"), []byte("key2")},
				values: [][]byte{[]byte("val1"), {}},
			}
			data, err := codec.Encode(leaf)
			require.NoError(t, err)

			decoded, err := codec.Decode(pager.Addr(7), data)
			require.NoError(t, err)
			assert.True(t, decoded.IsLeaf())
			assert.False(t, decoded.IsDirty())
			assert.True(t, decoded.IsCoded())
			assert.Equal(t, pager.Addr(7), decoded.Identity())
			assert.Equal(t, leaf.keys, decoded.keys)
			require.Len(t, decoded.values, 2)
			assert.Equal(t, []byte("val1"), decoded.values[0])
			assert.Empty(t, decoded.values[1])

			node := &Node{
				kind:     KindInternal,
				keys:     [][]byte{[]byte("m")},
				children: []childRef{{addr: 10}, {addr: 20}},
			}
			data, err = codec.Encode(node)
			require.NoError(t, err)
			decoded, err = codec.Decode(pager.Addr(30), data)
			require.NoError(t, err)
			assert.False(t, decoded.IsLeaf())
			assert.Equal(t, []childRef{{addr: 10}, {addr: 20}}, decoded.children)
		})
	}
}

func TestEncodeRefusesUnwrittenChild(t *testing.T) {
	node := &Node{
		kind:     KindInternal,
		keys:     [][]byte{[]byte("m")},
		children: []childRef{{addr: 10}, {handle: Handle{slot: 1, gen: 1}}},
	}
	_, err := BinaryCodec{}.Encode(node)
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))

	bad := &Node{kind: KindLeaf, keys: [][]byte{[]byte("a")}}
	_, err = BinaryCodec{}.Encode(bad)
	assert.Error(t, err)
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	leaf := &Node{kind: KindLeaf, keys: [][]byte{[]byte("abc")}, values: [][]byte{[]byte("xyz")}}
	data, err := BinaryCodec{}.Encode(leaf)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":     nil,
		"kind":      append([]byte{9}, data[1:]...),
		"truncated": data[:len(data)-1],
		"trailing":  append(append([]byte(nil), data...), 0),
	}
	for name, rec := range cases {
		_, err := BinaryCodec{}.Decode(1, rec)
		assert.Error(t, err, name)
	}

	_, err = NewSnappyCodec(nil).Decode(1, []byte("not snappy"))
	assert.Error(t, err)
}

func TestCheckpointRecord(t *testing.T) {
	rec := checkpointRecord{BranchingFactor: 32, Height: 3, Entries: 1000, Root: 77}
	got, err := decodeCheckpoint(encodeCheckpoint(rec))
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = decodeCheckpoint([]byte("CKPT"))
	assert.Error(t, err)
	_, err = decodeCheckpoint(encodeCheckpoint(checkpointRecord{BranchingFactor: 4, Height: 1}))
	assert.Error(t, err, "null root")
}

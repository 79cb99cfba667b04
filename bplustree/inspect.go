// Package bplus: tree inspection for debugging.
// Use Dump(w) to print a human-readable dump of a tree level by level.

package bplus

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"StratumDB/pager"
)

// Dump writes every node of the tree to w, breadth first. Nodes in memory
// are shown as they are; the others are read from the store without being
// cached. The retention queue is not touched.
func (t *BPlusTree) Dump(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }
	pln := func(s string) { fmt.Fprintln(w, s) }

	p("Tree: branching factor = %d, height = %d, entries = %d\n", t.bf, t.height, t.entries)
	p("  checkpoint = %s, queue = %d/%d, distinct = %d, resident = %d\n",
		t.checkpoint, t.queue.len(), t.queue.capacity(), t.ndistinctOnQueue, t.arena.len())
	if t.err != nil {
		p("  POISONED: %v\n", t.err)
	}

	pln("\n  Nodes (BFS):")
	pln("  ---")

	queue := []childRef{{addr: t.rootNode().identity, handle: t.root}}
	level := 0

	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for i := 0; i < size; i++ {
			ref := queue[i]
			node := t.arena.get(ref.handle)
			if node == nil {
				if t.store == nil || ref.addr == pager.NullAddr {
					p("    [%s] unreachable\n", ref.addr)
					continue
				}
				n, err := t.readNode(ref.addr)
				if err != nil {
					p("    [%s] read error: %v\n", ref.addr, err)
					continue
				}
				node = n
			}

			state := "clean"
			if node.dirty {
				state = "dirty"
			}
			if node.IsLeaf() {
				p("    [%s] LEAF %s keys=%d refs=%d\n", node.identity, state, len(node.keys), node.refCount)
				for j := range node.keys {
					p("      %s -> %s\n", formatKey(node.keys[j]), formatValue(node.values[j]))
				}
				continue
			}

			keyStrs := make([]string, len(node.keys))
			for j, k := range node.keys {
				keyStrs[j] = formatKey(k)
			}
			children := make([]string, len(node.children))
			for j, c := range node.children {
				children[j] = c.addr.String()
			}
			p("    [%s] INTERNAL %s keys=%v children=%v refs=%d\n",
				node.identity, state, keyStrs, children, node.refCount)
			queue = append(queue, node.children...)
		}
		pln("  ---")
		queue = queue[size:]
		level++
	}
	return nil
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// formatKey shows key bytes: printable = quoted string, 8-byte = big endian
// integer, else hex.
func formatKey(b []byte) string {
	if printable(b) {
		return fmt.Sprintf("%q", string(b))
	}
	if len(b) == 8 {
		return fmt.Sprintf("%d", binary.BigEndian.Uint64(b))
	}
	return fmt.Sprintf("0x%x", b)
}

func formatValue(b []byte) string {
	if len(b) > 32 {
		return fmt.Sprintf("%s... <%d bytes>", formatKey(b[:32]), len(b))
	}
	return formatKey(b)
}

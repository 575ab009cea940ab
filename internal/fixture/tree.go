package fixture

import (
	"github.com/robert-malhotra/go-minc/internal/binary"
)

// Entry is one member of a symbol-table group.
type Entry struct {
	Name string
	Addr uint64
}

// Chunk is one chunk of a chunked dataset.
type Chunk struct {
	// Offsets holds the element coordinates of the chunk's first element,
	// one per dataset dimension.
	Offsets []uint64
	Data    []byte
	// Mask is the filter mask; bit 0 set means the chunk is stored raw even
	// though the dataset declares deflate.
	Mask uint32
}

// Fan-out limits; small so that modest fixtures already produce multi-level
// trees and several symbol nodes.
const (
	treeFanout     = 4
	symbolsPerNode = 4
)

type treeLevel struct {
	addrs []uint64
	keys  [][]byte // len(addrs)+1
}

// SymbolGroup writes a local heap, symbol nodes and a group B-tree for the
// given members and returns the symbol table message that points at them.
func (b *Builder) SymbolGroup(entries ...Entry) Msg {
	seg := binary.NewWriter(b.Config)
	seg.WriteZeros(8)
	offsets := make([]uint64, len(entries))
	for i, e := range entries {
		offsets[i] = seg.Pos()
		seg.WriteString(e.Name, (len(e.Name)+8)&^7)
	}
	segAddr := b.Raw(seg.Bytes())

	b.w.Align(8, 0)
	heapAddr := b.w.Pos()
	b.w.WriteBytes([]byte("HEAP"))
	b.w.WriteUint8(0)
	b.w.WriteZeros(3)
	b.w.WriteLength(seg.Pos())
	b.writeUndefinedLength()
	b.w.WriteOffset(segAddr)

	lvl := treeLevel{keys: [][]byte{b.lengthKey(0)}}
	for i := 0; i < len(entries); i += symbolsPerNode {
		j := min(i+symbolsPerNode, len(entries))
		b.w.Align(8, 0)
		addr := b.w.Pos()
		b.w.WriteBytes([]byte("SNOD"))
		b.w.WriteUint8(1)
		b.w.WriteUint8(0)
		b.w.WriteUint16(uint16(j - i))
		for k := i; k < j; k++ {
			b.w.WriteOffset(offsets[k])
			b.w.WriteOffset(entries[k].Addr)
			b.w.WriteUint32(0)
			b.w.WriteUint32(0)
			b.w.WriteZeros(16)
		}
		lvl.addrs = append(lvl.addrs, addr)
		lvl.keys = append(lvl.keys, b.lengthKey(offsets[j-1]))
	}
	return b.SymbolTable(b.tree(0, lvl), heapAddr)
}

func (b *Builder) lengthKey(v uint64) []byte {
	w := binary.NewWriter(b.Config)
	w.WriteLength(v)
	return w.Bytes()
}

// ChunkTree writes the chunks and a raw-data B-tree indexing them, in the
// order given, and returns the tree's address. With deflate set, every chunk
// whose mask leaves bit 0 clear is compressed.
func (b *Builder) ChunkTree(deflate bool, chunks ...Chunk) uint64 {
	rank := 0
	if len(chunks) > 0 {
		rank = len(chunks[0].Offsets)
	}
	var lvl treeLevel
	for _, c := range chunks {
		data := c.Data
		if deflate && c.Mask&1 == 0 {
			data = Deflate(data)
		}
		lvl.addrs = append(lvl.addrs, b.Raw(data))
		lvl.keys = append(lvl.keys, chunkKey(uint32(len(data)), c.Mask, c.Offsets))
	}
	lvl.keys = append(lvl.keys, chunkKey(0, 0, make([]uint64, rank)))
	return b.tree(1, lvl)
}

func chunkKey(size, mask uint32, offsets []uint64) []byte {
	w := binary.NewWriter(binary.DefaultConfig())
	w.WriteUint32(size)
	w.WriteUint32(mask)
	for _, o := range offsets {
		w.WriteUint64(o)
	}
	w.WriteUint64(0)
	return w.Bytes()
}

// tree builds B-tree levels bottom-up until a single root remains.
func (b *Builder) tree(typ uint8, lvl treeLevel) uint64 {
	for level := uint8(0); ; level++ {
		var next treeLevel
		n := len(lvl.addrs)
		for i := 0; i == 0 || i < n; i += treeFanout {
			j := min(i+treeFanout, n)
			next.addrs = append(next.addrs, b.treeNode(typ, level, lvl.addrs[i:j], lvl.keys[i:j+1]))
			next.keys = append(next.keys, lvl.keys[i])
		}
		next.keys = append(next.keys, lvl.keys[n])
		if len(next.addrs) == 1 {
			return next.addrs[0]
		}
		lvl = next
	}
}

func (b *Builder) treeNode(typ, level uint8, children []uint64, keys [][]byte) uint64 {
	b.w.Align(8, 0)
	addr := b.w.Pos()
	b.w.WriteBytes([]byte("TREE"))
	b.w.WriteUint8(typ)
	b.w.WriteUint8(level)
	b.w.WriteUint16(uint16(len(children)))
	b.w.WriteUndefinedOffset()
	b.w.WriteUndefinedOffset()
	for i, child := range children {
		b.w.WriteBytes(keys[i])
		b.w.WriteOffset(child)
	}
	b.w.WriteBytes(keys[len(children)])
	return addr
}

// Heap parameters written by DenseAttributes.
const (
	heapMaxSizeBits = 32
	heapIDLen       = 8
)

// DenseAttributes stores attribute messages in a fractal heap with a single
// direct block, writes an empty v2 B-tree header for the name index, and
// returns the attribute info message pointing at both.
func (b *Builder) DenseAttributes(attrs ...Msg) Msg {
	var objs []byte
	for _, a := range attrs {
		objs = append(objs, a.Body...)
	}
	blockHeader := 5 + b.Config.OffsetSize + heapMaxSizeBits/8 + 4
	blockSize := uint64(512)
	for blockSize < uint64(blockHeader+len(objs)) {
		blockSize *= 2
	}

	w := b.w
	w.Align(8, 0)
	heapAddr := w.Pos()
	w.WriteBytes([]byte("FRHP"))
	w.WriteUint8(0)
	w.WriteUint16(heapIDLen)
	w.WriteUint16(0)
	w.WriteUint8(0x02)
	w.WriteUint32(uint32(blockSize))
	w.WriteLength(uint64(len(attrs) + 1))
	w.WriteUndefinedOffset()
	w.WriteLength(0)
	w.WriteUndefinedOffset()
	w.WriteLength(blockSize)
	w.WriteLength(blockSize)
	w.WriteLength(uint64(blockHeader + len(objs)))
	w.WriteLength(uint64(len(attrs)))
	for range 4 {
		w.WriteLength(0)
	}
	w.WriteUint16(4)
	w.WriteLength(blockSize)
	w.WriteLength(blockSize)
	w.WriteUint16(heapMaxSizeBits)
	w.WriteUint16(1)
	rootAt := w.Pos()
	w.WriteUndefinedOffset()
	w.WriteUint16(0)
	sumAt := w.Pos()
	w.WriteUint32(0)

	w.Align(8, 0)
	blockAddr := w.Pos()
	w.WriteBytes([]byte("FHDB"))
	w.WriteUint8(0)
	w.WriteOffset(heapAddr)
	w.WriteUintN(0, heapMaxSizeBits/8)
	w.WriteUint32(0)
	w.WriteBytes(objs)
	w.PadTo(blockAddr + blockSize)

	w.PutOffsetAt(rootAt, blockAddr)
	w.PutUintNAt(sumAt, uint64(binary.Lookup3(w.Bytes()[heapAddr:sumAt])), 4)

	w.Align(8, 0)
	btreeAddr := w.Pos()
	w.WriteBytes([]byte("BTHD"))
	w.WriteUint8(0)
	w.WriteUint8(8)
	w.WriteUint32(512)
	w.WriteUint16(17)
	w.WriteUint16(0)
	w.WriteUint8(100)
	w.WriteUint8(40)
	w.WriteUndefinedOffset()
	w.WriteUint16(0)
	w.WriteLength(uint64(len(attrs)))
	w.WriteChecksum(btreeAddr)

	return b.AttributeInfo(heapAddr, btreeAddr)
}

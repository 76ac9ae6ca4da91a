// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"fmt"
	"math/bits"

	"github.com/ava-labs/contractstore/storage"
)

const (
	// BitsPerBlock is the number of bits packed into one storage slot.
	BitsPerBlock = 256
	blockLen     = BitsPerBlock / 8
)

var _ storage.Flusher = (*BitVec)(nil)

type block [blockLen]byte

func (b *block) get(bit uint64) bool { return b[bit/8]&(1<<(bit%8)) != 0 }

func (b *block) set(bit uint64, value bool) {
	if value {
		b[bit/8] |= 1 << (bit % 8)
	} else {
		b[bit/8] &^= 1 << (bit % 8)
	}
}

func (b *block) ones() uint64 {
	n := 0
	for _, x := range b {
		n += bits.OnesCount8(x)
	}
	return uint64(n)
}

// BitVec is a growable sequence of bits packed [BitsPerBlock] to a slot.
// Blocks are stored as raw bytes.
type BitVec struct {
	header *Value[vecHeader]
	blocks *storage.Chunk

	length uint64
	loaded bool
}

// NewBitVec declares a BitVec in [l].
func NewBitVec(l *storage.Layout) (*BitVec, error) {
	headerKey, err := l.Declare(1)
	if err != nil {
		return nil, err
	}
	base, err := l.Declare(MaxLen / BitsPerBlock)
	if err != nil {
		return nil, err
	}
	b := &BitVec{
		header: newValueAt[vecHeader](l.Backend(), headerKey),
		blocks: storage.NewChunk(l.Backend(), base, MaxLen/BitsPerBlock),
	}
	l.Register(b)
	return b, nil
}

func (b *BitVec) load() error {
	if b.loaded {
		return nil
	}
	hdr, err := b.header.GetOr(vecHeader{})
	if err != nil {
		return err
	}
	b.length, b.loaded = hdr.Len, true
	return nil
}

func (b *BitVec) setLen(n uint64) error {
	b.length = n
	return b.header.Set(vecHeader{Len: n})
}

func (b *BitVec) block(i uint64) (block, error) {
	var blk block
	raw, ok, err := b.blocks.Get(i)
	if err != nil || !ok {
		return blk, err
	}
	if len(raw) != blockLen {
		return blk, fmt.Errorf("%w: bit block %d has %d bytes", ErrCorrupt, i, len(raw))
	}
	copy(blk[:], raw)
	return blk, nil
}

func (b *BitVec) putBlock(i uint64, blk block) error {
	return b.blocks.Set(i, blk[:])
}

func (b *BitVec) Len() (uint64, error) {
	if err := b.load(); err != nil {
		return 0, err
	}
	return b.length, nil
}

func (b *BitVec) checkIndex(i uint64) error {
	if err := b.load(); err != nil {
		return err
	}
	if i >= b.length {
		return fmt.Errorf("%w: bit %d with length %d", ErrOutOfBounds, i, b.length)
	}
	return nil
}

func (b *BitVec) Get(i uint64) (bool, error) {
	if err := b.checkIndex(i); err != nil {
		return false, err
	}
	blk, err := b.block(i / BitsPerBlock)
	if err != nil {
		return false, err
	}
	return blk.get(i % BitsPerBlock), nil
}

func (b *BitVec) Set(i uint64, value bool) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	return b.write(i, value)
}

func (b *BitVec) write(i uint64, value bool) error {
	blk, err := b.block(i / BitsPerBlock)
	if err != nil {
		return err
	}
	blk.set(i%BitsPerBlock, value)
	return b.putBlock(i/BitsPerBlock, blk)
}

// Flip inverts bit [i] and returns its new value.
func (b *BitVec) Flip(i uint64) (bool, error) {
	value, err := b.Get(i)
	if err != nil {
		return false, err
	}
	return !value, b.write(i, !value)
}

func (b *BitVec) Push(value bool) error {
	if err := b.load(); err != nil {
		return err
	}
	if b.length == MaxLen {
		return fmt.Errorf("%w: bit vec holds %d bits", ErrCapacityExceeded, MaxLen)
	}
	i := b.length
	if i%BitsPerBlock == 0 {
		// first bit of a fresh block
		var blk block
		blk.set(0, value)
		if err := b.putBlock(i/BitsPerBlock, blk); err != nil {
			return err
		}
	} else if err := b.write(i, value); err != nil {
		return err
	}
	return b.setLen(i + 1)
}

// Pop removes and returns the last bit. A block whose last bit is popped is
// cleared from storage.
func (b *BitVec) Pop() (bool, error) {
	if err := b.load(); err != nil {
		return false, err
	}
	if b.length == 0 {
		return false, ErrEmpty
	}
	last := b.length - 1
	value, err := b.Get(last)
	if err != nil {
		return false, err
	}
	if last%BitsPerBlock == 0 {
		err = b.blocks.Clear(last / BitsPerBlock)
	} else {
		err = b.write(last, false)
	}
	if err != nil {
		return false, err
	}
	return value, b.setLen(last)
}

// CountOnes returns the number of set bits. It reads every block.
func (b *BitVec) CountOnes() (uint64, error) {
	if err := b.load(); err != nil {
		return 0, err
	}
	var n uint64
	for i := uint64(0); i*BitsPerBlock < b.length; i++ {
		blk, err := b.block(i)
		if err != nil {
			return 0, err
		}
		n += blk.ones()
	}
	return n, nil
}

func (b *BitVec) Flush() error {
	if err := b.blocks.Flush(); err != nil {
		return err
	}
	return b.header.Flush()
}

func (b *BitVec) Discard() {
	b.blocks.Discard()
	b.header.Discard()
	b.loaded = false
	b.length = 0
}

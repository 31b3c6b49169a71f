package world

import "github.com/emberfall/server/internal/core/ecs"

// objectBucket hands out 256 public-id slots from a bitmap. Allocation
// prefers the slot after the last one used so recently freed ids are not
// immediately reissued.
type objectBucket struct {
	bitmap     [4]uint64 // set bit = free slot
	free       int
	nextObject int
	entities   [256]ecs.EntityID
}

func newObjectBucket() *objectBucket {
	b := &objectBucket{free: 256}
	for i := range b.bitmap {
		b.bitmap[i] = ^uint64(0)
	}
	return b
}

func (b *objectBucket) allocate() int {
	if b.free == 0 {
		return -1
	}

	if b.bitmap[b.nextObject/64]&(1<<uint(b.nextObject%64)) != 0 {
		b.bitmap[b.nextObject/64] &^= 1 << uint(b.nextObject%64)
		i := b.nextObject
		b.nextObject = (i + 1) & 255
		b.free--
		return i
	}

	for i := 0; i < 4; i++ {
		k := (i + b.nextObject/64) & 3
		if word := b.bitmap[k]; word != 0 {
			j := 0
			for word&1 == 0 {
				word >>= 1
				j++
			}
			b.bitmap[k] &^= 1 << uint(j)
			j += k * 64
			b.nextObject = (j + 1) & 255
			b.free--
			return j
		}
	}
	return -1
}

func (b *objectBucket) deallocate(i int) {
	if b.bitmap[i/64]&(1<<uint(i%64)) != 0 {
		return // already free
	}
	b.bitmap[i/64] |= 1 << uint(i%64)
	b.entities[i] = 0
	b.free++
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package compressed

import (
	"navalsim/terrain"
)

const (
	// chunkSizeBits is the chunk size in bits.
	chunkSizeBits = 6
	// chunkSize is the width and height of a chunk.
	// It must be a power of 2.
	chunkSize = 1 << chunkSizeBits
)

const regenMillis = 30 * 60 * 1000

// chunkUpdateState is a one-way state machine tracking what, if
// anything, has changed in a chunk since the last resetUpdate: no
// changes, a handful of individual coordinates, or (once there are too
// many to itemize) the whole chunk needs resending.
type chunkUpdateState uint8

const (
	chunkUpdateNone chunkUpdateState = iota
	chunkUpdateCoords
	chunkUpdateComplete
)

// maxDirtyCoords caps how many individual edits a chunk itemizes
// before giving up and marking itself complete; a compressed chunk
// is roughly 2KB, so past a few hundred edits there's nothing to gain
// from tracking them individually.
const maxDirtyCoords = 200

type dirtyCoord struct {
	x, y uint8
}

// chunk stores a region of heightmap data as nibbles.
type chunk struct {
	data   [chunkSize][chunkSize / 2]byte
	regen  int64 // timestamp of next regen (managed by compressed.Repair)
	update chunkUpdateState
	dirty  []dirtyCoord
}

// markDirty records that (x, y), in unsigned terrain coordinates, was
// written since the last resetUpdate.
func (c *chunk) markDirty(x, y uint) {
	if c.update == chunkUpdateComplete {
		return
	}
	if c.update == chunkUpdateNone {
		c.update = chunkUpdateCoords
	}
	if len(c.dirty) >= maxDirtyCoords {
		c.update = chunkUpdateComplete
		c.dirty = nil
		return
	}
	c.dirty = append(c.dirty, dirtyCoord{uint8(x & (chunkSize - 1)), uint8(y & (chunkSize - 1))})
}

// resetUpdate clears dirty tracking, starting a new tracking period.
func (c *chunk) resetUpdate() {
	c.update = chunkUpdateNone
	c.dirty = nil
}

// updatedRects returns the minimal set of chunk-local rectangles
// (inclusive bounds) covering every pixel touched since the last
// resetUpdate. If too many individual edits accumulated, it returns a
// single rectangle covering the whole chunk instead.
func (c *chunk) updatedRects() []Rect {
	switch c.update {
	case chunkUpdateNone:
		return nil
	case chunkUpdateComplete:
		return []Rect{{0, 0, chunkSize - 1, chunkSize - 1}}
	}

	mask := make([][]bool, chunkSize)
	rows := make([]bool, chunkSize*chunkSize)
	for i := range mask {
		mask[i] = rows[i*chunkSize : (i+1)*chunkSize]
	}
	for _, d := range c.dirty {
		mask[d.y][d.x] = true
	}
	return greedyMesh(mask)
}

// If c passed in, it is partially regenerated (atomically)
func generateChunk(generator terrain.Source, cx, cy uint, c *chunk) *chunk {
	heightmap := generator.Generate(int(cx*chunkSize), int(cy*chunkSize), chunkSize, chunkSize)

	// Early bounds check
	_ = heightmap[chunkSize*chunkSize-1]

	if c == nil {
		c = new(chunk)

		for i := uint(0); i < chunkSize; i++ {
			for j := uint(0); j < chunkSize; j++ {
				c.set(j, i, heightmap[i*chunkSize+j])
			}
		}
	} else {
		for i := uint(0); i < chunkSize; i++ {
			for j := uint(0); j < chunkSize; j++ {
				height := heightmap[i*chunkSize+j] & 0b11110000
				oldHeight := c.at(j, i)
				if height > oldHeight {
					c.set(j, i, oldHeight+0b10000)
				} else if height < oldHeight {
					c.set(j, i, oldHeight-0b10000)
				}
			}
		}
	}

	return c
}

// at gets a global position in the chunk.
// It assumes c is the correct chunk.
func (c *chunk) at(x, y uint) byte {
	// Convert to relative coords.
	sx := (x / 2) & (chunkSize/2 - 1)
	y &= chunkSize - 1

	return (c.data[y][sx] << ((x & 1) * 4)) & 0b11110000
}

// set sets a global position's value.
// It assumes c is the correct chunk.
func (c *chunk) set(x, y uint, value byte) {
	// Convert to relative coords.
	sx := (x / 2) & (chunkSize/2 - 1)
	y &= chunkSize - 1

	shift := (x & 1) * 4
	c.data[y][sx] = (c.data[y][sx] & (0b1111 << shift)) | ((value & 0b11110000) >> shift)
}

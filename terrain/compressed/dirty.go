// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package compressed

import (
	"navalsim/terrain"
	"navalsim/world"
	"sync/atomic"
	"unsafe"
)

// Rect is an axis-aligned, chunk-local rectangle with inclusive
// bounds, describing a coalesced region of dirty pixels.
type Rect struct {
	X0, Y0, X1, Y1 uint8
}

// greedyMesh covers every true cell of mask with a small set of
// maximal axis-aligned rectangles, clearing cells as they're consumed
// so nothing is covered twice. Each run of set cells in a row is first
// extended as wide as possible, then grown downward as long as the
// same run repeats in the rows below.
func greedyMesh(mask [][]bool) []Rect {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	var rects []Rect
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] {
				continue
			}

			x1 := x
			for x1+1 < width && mask[y][x1+1] {
				x1++
			}

			y1 := y
		rows:
			for y1+1 < height {
				for xx := x; xx <= x1; xx++ {
					if !mask[y1+1][xx] {
						break rows
					}
				}
				y1++
			}

			for yy := y; yy <= y1; yy++ {
				for xx := x; xx <= x1; xx++ {
					mask[yy][xx] = false
				}
			}

			rects = append(rects, Rect{uint8(x), uint8(y), uint8(x1), uint8(y1)})
		}
	}

	return rects
}

// ChunkRect names which chunk a dirty Rect belongs to, in chunk grid
// coordinates (not unsigned terrain coordinates).
type ChunkRect struct {
	ChunkX, ChunkY int
	Rect           Rect
}

// DirtyRects returns the minimal set of rectangles covering every
// pixel sculpted since the last call, across every chunk that's been
// generated so far, and resets each visited chunk's dirty tracking.
// Chunks that were never touched (update == chunkUpdateNone) are
// skipped entirely, so this costs nothing on a quiet tick.
func (t *Terrain) DirtyRects() []ChunkRect {
	var out []ChunkRect

	for cx := 0; cx < chunkCount; cx++ {
		for cy := 0; cy < chunkCount; cy++ {
			c := (*chunk)(atomic.LoadPointer((*unsafe.Pointer)(unsafe.Pointer(&t.chunks[cx][cy]))))
			if c == nil || c.update == chunkUpdateNone {
				continue
			}
			for _, r := range c.updatedRects() {
				out = append(out, ChunkRect{ChunkX: cx, ChunkY: cy, Rect: r})
			}
			c.resetUpdate()
		}
	}

	return out
}

// ConsumeDirtyRects is DirtyRects translated into world-space AABBs,
// satisfying terrain.Terrain. It's how the hub pulls this tick's
// sculpted regions for incremental delivery to clients (Update.TerrainDeltas),
// instead of re-sending every client's whole viewport every tick.
func (t *Terrain) ConsumeDirtyRects() []world.AABB {
	chunkRects := t.DirtyRects()
	if len(chunkRects) == 0 {
		return nil
	}

	out := make([]world.AABB, len(chunkRects))
	for i, cr := range chunkRects {
		x0 := int(cr.ChunkX)*chunkSize + int(cr.Rect.X0) - Size/2
		y0 := int(cr.ChunkY)*chunkSize + int(cr.Rect.Y0) - Size/2
		x1 := int(cr.ChunkX)*chunkSize + int(cr.Rect.X1) - Size/2 + 1
		y1 := int(cr.ChunkY)*chunkSize + int(cr.Rect.Y1) - Size/2 + 1

		out[i] = world.AABB{
			Vec2f:  world.Vec2f{X: float32(x0), Y: float32(y0)}.Mul(terrain.Scale),
			Width:  float32(x1-x0) * terrain.Scale,
			Height: float32(y1-y0) * terrain.Scale,
		}
	}
	return out
}

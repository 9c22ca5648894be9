// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package compressed

import "testing"

func countTrue(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

func maskFromRects(width, height int, rects []Rect) [][]bool {
	mask := make([][]bool, height)
	for i := range mask {
		mask[i] = make([]bool, width)
	}
	for _, r := range rects {
		for y := r.Y0; y <= r.Y1; y++ {
			for x := r.X0; x <= r.X1; x++ {
				mask[y][x] = true
			}
		}
	}
	return mask
}

func TestGreedyMesh_CoversExactly(t *testing.T) {
	const size = 8
	mask := make([][]bool, size)
	for i := range mask {
		mask[i] = make([]bool, size)
	}

	// An L-shaped region plus an isolated pixel.
	for x := 0; x < 5; x++ {
		mask[0][x] = true
		mask[1][x] = true
	}
	for y := 0; y < 4; y++ {
		mask[y][0] = true
	}
	mask[6][6] = true

	want := countTrue(mask)

	rects := greedyMesh(mask)

	got := maskFromRects(size, size, rects)
	if gotCount := countTrue(got); gotCount != want {
		t.Fatalf("covered %d cells, want %d", gotCount, want)
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if got[y][x] != (x == 0 && y < 4 || y < 2 && x < 5 || (x == 6 && y == 6)) {
				t.Fatalf("cell (%d,%d) mismatch: got %v", x, y, got[y][x])
			}
		}
	}
}

func TestGreedyMesh_Empty(t *testing.T) {
	mask := make([][]bool, 4)
	for i := range mask {
		mask[i] = make([]bool, 4)
	}
	if rects := greedyMesh(mask); len(rects) != 0 {
		t.Fatalf("greedyMesh(all-false) = %v, want none", rects)
	}
}

func TestChunk_UpdatedRects(t *testing.T) {
	c := new(chunk)

	if got := c.updatedRects(); got != nil {
		t.Fatalf("clean chunk: updatedRects() = %v, want nil", got)
	}

	c.set(3, 3, 0x50)
	c.markDirty(3, 3)
	c.set(3, 4, 0x50)
	c.markDirty(3, 4)

	rects := c.updatedRects()
	if len(rects) == 0 {
		t.Fatal("dirty chunk: updatedRects() returned none")
	}

	mask := maskFromRects(chunkSize, chunkSize, rects)
	if !mask[3][3] || !mask[4][3] {
		t.Fatalf("updatedRects() didn't cover the two edited pixels: %v", rects)
	}

	c.resetUpdate()
	if got := c.updatedRects(); got != nil {
		t.Fatalf("after resetUpdate: updatedRects() = %v, want nil", got)
	}
}

func TestChunk_MarkDirty_EscalatesToComplete(t *testing.T) {
	c := new(chunk)
	for i := 0; i <= maxDirtyCoords; i++ {
		c.markDirty(uint(i%chunkSize), uint(i/chunkSize))
	}

	if c.update != chunkUpdateComplete {
		t.Fatalf("update state = %d, want chunkUpdateComplete after %d edits", c.update, maxDirtyCoords+1)
	}

	rects := c.updatedRects()
	if len(rects) != 1 || rects[0] != (Rect{0, 0, chunkSize - 1, chunkSize - 1}) {
		t.Fatalf("updatedRects() after escalation = %v, want whole-chunk rect", rects)
	}
}

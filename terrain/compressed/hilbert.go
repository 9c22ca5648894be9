// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package compressed

// hilbertOrder lists, for a chunkSize x chunkSize tile, the (x, y)
// offsets in Hilbert-curve order. Real terrain is locally smooth, so
// walking a tile this way instead of row-major keeps neighboring
// samples adjacent more often, which shortens the runs the RLE buffer
// breaks at tile edges and corners compared to a raster scan.
var hilbertOrder [chunkSize * chunkSize]struct{ x, y uint16 }

func init() {
	for d := 0; d < chunkSize*chunkSize; d++ {
		x, y := hilbertD2XY(chunkSize, d)
		hilbertOrder[d] = struct{ x, y uint16 }{uint16(x), uint16(y)}
	}
}

// hilbertD2XY converts a distance along a Hilbert curve of order n
// (n must be a power of 2) into (x, y) coordinates.
func hilbertD2XY(n, d int) (x, y int) {
	t := d
	for s := 1; s < n; s *= 2 {
		rx := 1 & (t / 2)
		ry := 1 & (t ^ rx)
		x, y = hilbertRot(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		t /= 4
	}
	return
}

func hilbertRot(n, x, y, rx, ry int) (int, int) {
	if ry == 0 {
		if rx == 1 {
			x = n - 1 - x
			y = n - 1 - y
		}
		x, y = y, x
	}
	return x, y
}

// forEachHilbert calls fn once for every pixel of a width x height
// rectangle, tiling it into chunkSize x chunkSize blocks each walked
// in Hilbert order. A partial block along the right or bottom edge
// (the rectangle need not be chunk-aligned) falls back to row-major
// order, since there's no full tile to build a curve over.
func forEachHilbert(width, height uint, fn func(i, j uint)) {
	for by := uint(0); by < height; by += chunkSize {
		bh := minUint(chunkSize, height-by)
		for bx := uint(0); bx < width; bx += chunkSize {
			bw := minUint(chunkSize, width-bx)
			if bw == chunkSize && bh == chunkSize {
				for _, p := range hilbertOrder {
					fn(bx+uint(p.x), by+uint(p.y))
				}
			} else {
				for jj := uint(0); jj < bh; jj++ {
					for ii := uint(0); ii < bw; ii++ {
						fn(bx+ii, by+jj)
					}
				}
			}
		}
	}
}

func minUint(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import "navalsim/world"

// Altitude is the decoded, signed representation of a terrain height.
// It is intentionally non-linear: the raw byte stored per pixel only
// carries 16 distinct coarse levels, but sea floor and mountain peaks
// both need to be representable without sea level eating most of the
// resolution. See altitudeLUT.
type Altitude int8

const (
	// dataOffset shifts the raw byte so that sea level lands slightly
	// above zero, leaving room for noise to carve shallow water without
	// crossing into negative (sub-sea-level) territory too easily.
	dataOffset = 6

	// SandAltitude is the signed altitude at which sand (beach) begins.
	SandAltitude = Altitude(0)
	// GrassAltitude is the signed altitude at which grass begins.
	GrassAltitude = Altitude(1 << 4)
)

// altitudeLUT maps a coarse (high-nibble) terrain value to a signed
// altitude. Entries are spaced more tightly around sea level (index 8)
// and widen towards the extremes, so most of the 8-bit byte range maps
// to the relatively flat coastal band.
var altitudeLUT = [17]int8{
	-128, -115, -100, -50, -20, -5, -2, -1,
	0,
	1, 2, 5, 20, 50, 100, 115, 127,
}

// decodeAltitude converts a raw terrain byte into an Altitude, linearly
// interpolating between the two bracketing LUT entries.
func decodeAltitude(data byte) Altitude {
	biased := data
	if biased > 255-dataOffset {
		biased = 255
	} else {
		biased += dataOffset
	}

	index := biased >> 4
	low := int16(altitudeLUT[index])
	high := int16(altitudeLUT[index+1])
	frac := int16(biased & 0b1111)

	return Altitude(low + (high-low)*frac/16)
}

// encodeAltitude converts an Altitude back into a raw terrain byte.
// This is lossy: it only produces multiples of 16, since the LUT's
// interpolation isn't reversible in general. dataOffset biases decoding
// towards sea level but is intentionally not un-applied here: the round
// trip through decodeAltitude already adds it back.
func encodeAltitude(altitude Altitude) byte {
	target := int8(altitude)

	index := 0
	for i, v := range altitudeLUT {
		if v > target {
			break
		}
		index = i
	}

	return byte(index * 16)
}

// Meters converts an Altitude to meters above (or below) sea level,
// for use in gameplay code expecting a continuous quantity (e.g. boat
// draft, aircraft ceiling).
func (a Altitude) Meters() float32 {
	return float32(a) * 0.3
}

// AltitudeAt returns the decoded signed altitude at a world-space position.
func AltitudeAt(t Terrain, pos world.Vec2f) Altitude {
	return decodeAltitude(t.AtPos(pos))
}

// LandAt returns whether the position lies on land (sand or higher).
func LandAt(t Terrain, pos world.Vec2f) bool {
	return t.AtPos(pos) >= SandLevel
}

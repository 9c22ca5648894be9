// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

// Raw byte-space terrain thresholds. Most of the package (rendering,
// noise generation, collision, the compressed buffer) deals directly in
// these encoded bytes rather than the signed Altitude scale; they are
// derived from the same encodeAltitude mapping used for gameplay so the
// two scales never drift apart.
var (
	OceanLevel = SandLevel - 10
	SandLevel  = encodeAltitude(SandAltitude)
	GrassLevel = encodeAltitude(GrassAltitude)
	RockLevel  = GrassLevel + 40
	SnowLevel  = byte(255)
)

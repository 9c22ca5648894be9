// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package tree

import (
	"navalsim/world"
	"testing"
)

func BenchmarkTreeWorld(b *testing.B) {
	world.Bench(b, func(radius int) world.World {
		return New(radius)
	}, 4096)
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package interp

import (
	"github.com/chewxy/math32"
	"navalsim"
	"navalsim/world"
	"testing"
)

func approx(a, b float32) bool {
	return math32.Abs(a-b) < 0.02
}

func TestUpdateErrorBound_ZeroWhenContactsMatch(t *testing.T) {
	contact := server.Contact{Transform: world.Transform{Position: world.Vec2f{X: 10, Y: 10}}}
	c := NewInterpolatedContact(1, contact)

	c.UpdateErrorBound(1.0)

	if c.Error != 0 {
		t.Fatalf("Error = %v, want 0 when Model == View", c.Error)
	}
}

func TestUpdateErrorBound_GrowsWithDiscrepancy(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{Transform: world.Transform{Position: world.Vec2f{X: 0, Y: 0}}})
	c.Model.Position = world.Vec2f{X: 10, Y: 0}

	c.UpdateErrorBound(0.1)

	if c.Error <= 0 {
		t.Fatalf("Error = %v, want > 0 after a positional discrepancy", c.Error)
	}
}

func TestUpdateErrorBound_Clamped(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{})
	c.Model.Position = world.Vec2f{X: 100000, Y: 100000}

	c.UpdateErrorBound(5.0)

	if c.Error != ErrorMax {
		t.Fatalf("Error = %v, want clamped to %v", c.Error, ErrorMax)
	}
}

func TestUpdateErrorBound_DecaysWithoutFurtherDiscrepancy(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{})
	c.Error = ErrorMax

	c.UpdateErrorBound(1.0)

	if c.Error >= ErrorMax {
		t.Fatalf("Error = %v, want decayed below %v", c.Error, ErrorMax)
	}
}

func TestInterpolate_MovesViewTowardModel(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{Transform: world.Transform{Position: world.Vec2f{X: 0, Y: 0}}})
	c.Model.Position = world.Vec2f{X: 100, Y: 0}
	c.Error = ErrorMax

	before := c.View.Position.Distance(c.Model.Position)
	c.Interpolate(0.1, 0)
	after := c.View.Position.Distance(c.Model.Position)

	if after >= before {
		t.Fatalf("view did not move closer to model: before=%v after=%v", before, after)
	}
}

func TestInterpolate_SkipsGuidanceForPlayerOwnBoat(t *testing.T) {
	const playerID world.EntityID = 7

	c := NewInterpolatedContact(playerID, server.Contact{})
	c.Model.Guidance.DirectionTarget = world.Pi / 2
	c.Error = ErrorMax

	c.Interpolate(1.0, playerID)

	if c.View.Guidance.DirectionTarget != 0 {
		t.Fatalf("guidance was interpolated for the player's own boat: %v", c.View.Guidance.DirectionTarget)
	}
}

func TestInterpolate_InterpolatesGuidanceForOthers(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{})
	c.Model.Guidance.DirectionTarget = world.Pi / 2
	c.Error = ErrorMax

	c.Interpolate(1.0, 2)

	if c.View.Guidance.DirectionTarget == 0 {
		t.Fatal("guidance was not interpolated for a non-player contact")
	}
}

func TestGenerateParticles_NilOnEntityTypeMismatch(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{})
	c.Model.EntityType = c.View.EntityType + 1

	if got := c.GenerateParticles(); got != nil {
		t.Fatalf("GenerateParticles() = %v, want nil on entity type mismatch", got)
	}
}

func TestGenerateParticles_NilWithoutReloadData(t *testing.T) {
	c := NewInterpolatedContact(1, server.Contact{})

	if got := c.GenerateParticles(); got != nil {
		t.Fatalf("GenerateParticles() = %v, want nil without ArmamentConsumption/TurretAngles", got)
	}
}

// findBoatWithMuzzleFlashArmament scans the loaded entity catalog for a
// boat with at least one Shell/Rocket/Missile armament, returning its
// index within data.Armaments alongside the boat type.
func findBoatWithMuzzleFlashArmament(t *testing.T) (world.EntityType, int) {
	t.Helper()
	for i := 0; i < world.EntityTypeCount; i++ {
		entityType := world.EntityType(i)
		data := entityType.Data()
		if data.Kind != world.EntityKindBoat {
			continue
		}
		for a, armament := range data.Armaments {
			if isMuzzleFlashSubKind(armament.Default.Data().SubKind) {
				return entityType, a
			}
		}
	}
	t.Skip("no loaded boat type has a Shell/Rocket/Missile armament")
	return 0, 0
}

func TestGenerateParticles_FiresOnReloadTransition(t *testing.T) {
	entityType, armamentIndex := findBoatWithMuzzleFlashArmament(t)
	data := entityType.Data()

	consumption := make([]world.Ticks, len(data.Armaments))
	turrets := make([]world.Angle, len(data.Turrets))

	contact := server.Contact{
		EntityType:          entityType,
		ArmamentConsumption: consumption,
		TurretAngles:        turrets,
	}

	c := NewInterpolatedContact(1, contact)
	// View still shows the armament as ready (0); Model shows it just
	// consumed (non-zero), which is the fired transition.
	c.Model.ArmamentConsumption = append([]world.Ticks(nil), consumption...)
	c.Model.ArmamentConsumption[armamentIndex] = data.Armaments[armamentIndex].Reload()
	if c.Model.ArmamentConsumption[armamentIndex] == 0 {
		c.Model.ArmamentConsumption[armamentIndex] = 1
	}

	particles := c.GenerateParticles()

	if len(particles) != muzzleFlashCount {
		t.Fatalf("GenerateParticles() returned %d particles, want %d", len(particles), muzzleFlashCount)
	}
}

func TestGenerateParticles_SkipsWhenNotJustFired(t *testing.T) {
	entityType, armamentIndex := findBoatWithMuzzleFlashArmament(t)
	data := entityType.Data()

	consumption := make([]world.Ticks, len(data.Armaments))
	consumption[armamentIndex] = data.Armaments[armamentIndex].Reload()
	if consumption[armamentIndex] == 0 {
		consumption[armamentIndex] = 1
	}
	turrets := make([]world.Angle, len(data.Turrets))

	contact := server.Contact{
		EntityType:          entityType,
		ArmamentConsumption: consumption,
		TurretAngles:        turrets,
	}

	c := NewInterpolatedContact(1, contact)
	// Model matches View (already reloading before and after): not a
	// fresh transition, so no particles.
	c.Model.ArmamentConsumption = append([]world.Ticks(nil), consumption...)

	if particles := c.GenerateParticles(); particles != nil {
		t.Fatalf("GenerateParticles() = %v, want nil when reload state didn't transition from ready", particles)
	}
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package targeting

import (
	"navalsim"
	"navalsim/world"
	"testing"
)

func TestFindBestArmament_NilFilterSelectsNone(t *testing.T) {
	if idx, ok := FindBestArmament(server.Contact{}, true, world.Vec2f{}, nil); ok || idx != 0 {
		t.Fatalf("FindBestArmament(nil filter) = (%d, %v), want (0, false)", idx, ok)
	}
}

// findBoatWithArmament scans the loaded entity catalog for a boat
// with at least one armament, returning the boat type and the first
// armament's (kind, sub-kind) as a matching Filter.
func findBoatWithArmament(t *testing.T) (world.EntityType, Filter) {
	t.Helper()
	for i := 0; i < world.EntityTypeCount; i++ {
		entityType := world.EntityType(i)
		data := entityType.Data()
		if data.Kind != world.EntityKindBoat || len(data.Armaments) == 0 {
			continue
		}
		armamentData := data.Armaments[0].Default.Data()
		return entityType, Filter{Kind: armamentData.Kind, SubKind: armamentData.SubKind}
	}
	t.Skip("no loaded boat type has any armaments")
	return 0, Filter{}
}

func TestFindBestArmament_SelectsReadyMatchingArmament(t *testing.T) {
	entityType, filter := findBoatWithArmament(t)
	data := entityType.Data()

	contact := server.Contact{
		EntityType:          entityType,
		Transform:           world.Transform{Position: world.Vec2f{X: 0, Y: 0}, Direction: 0},
		ArmamentConsumption: make([]world.Ticks, len(data.Armaments)),
		TurretAngles:        make([]world.Angle, len(data.Turrets)),
	}

	// Fire straight ahead, along the boat's own heading, at a point far
	// enough away that azimuth/angle constraints on in-arc armaments
	// are satisfied.
	mousePosition := world.Vec2f{X: 1000, Y: 0}

	idx, ok := FindBestArmament(contact, false, mousePosition, &filter)
	if !ok {
		t.Fatal("FindBestArmament found no candidate for a ready, matching armament")
	}
	if data.Armaments[idx].Default.Data().Kind != filter.Kind || data.Armaments[idx].Default.Data().SubKind != filter.SubKind {
		t.Fatalf("FindBestArmament returned index %d, whose type doesn't match filter %+v", idx, filter)
	}
}

func TestFindBestArmament_SkipsReloadingArmaments(t *testing.T) {
	entityType, filter := findBoatWithArmament(t)
	data := entityType.Data()

	consumption := make([]world.Ticks, len(data.Armaments))
	for i, armament := range data.Armaments {
		armamentData := armament.Default.Data()
		if armamentData.Kind == filter.Kind && armamentData.SubKind == filter.SubKind {
			consumption[i] = armament.Reload()
			if consumption[i] == 0 {
				consumption[i] = 1
			}
		}
	}

	contact := server.Contact{
		EntityType:          entityType,
		ArmamentConsumption: consumption,
		TurretAngles:        make([]world.Angle, len(data.Turrets)),
	}

	if idx, ok := FindBestArmament(contact, false, world.Vec2f{X: 1000, Y: 0}, &filter); ok {
		t.Fatalf("FindBestArmament selected reloading armament %d", idx)
	}
}

func TestFindBestArmament_NoMatchingType(t *testing.T) {
	entityType, _ := findBoatWithArmament(t)
	data := entityType.Data()

	contact := server.Contact{
		EntityType:          entityType,
		ArmamentConsumption: make([]world.Ticks, len(data.Armaments)),
		TurretAngles:        make([]world.Angle, len(data.Turrets)),
	}

	// A filter that (almost certainly) matches nothing the boat carries.
	filter := Filter{Kind: world.EntityKindCollectible, SubKind: world.EntitySubKindMine}

	if idx, ok := FindBestArmament(contact, false, world.Vec2f{X: 1000, Y: 0}, &filter); ok {
		t.Fatalf("FindBestArmament matched a type it shouldn't have: index %d", idx)
	}
}

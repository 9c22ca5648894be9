// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package targeting picks which armament a player's boat would fire
// at a given mouse position, the way a client decides what a click
// will launch before sending the fire command to the server.
package targeting

import (
	"github.com/chewxy/math32"
	"navalsim"
	"navalsim/world"
)

// Filter restricts FindBestArmament to armaments of a specific kind
// and sub-kind, e.g. the player's currently selected weapon type.
type Filter struct {
	Kind    world.EntityKind
	SubKind world.EntitySubKind
}

// FindBestArmament returns the index within playerContact's armament
// list that would be fired at mousePosition, scoring candidates by a
// combination of angle and distance to the target and preferring the
// lowest score. It considers only armaments matching filter that are
// done reloading and, if turreted, within that turret's azimuth
// range. If angleLimit is set, an armament whose angle to the target
// exceeds its sub-kind's tolerance is excluded rather than merely
// penalized. Returns false if no armament qualifies.
func FindBestArmament(playerContact server.Contact, angleLimit bool, mousePosition world.Vec2f, filter *Filter) (int, bool) {
	if filter == nil {
		return 0, false
	}

	data := playerContact.EntityType.Data()

	bestIndex := -1
	var bestScore float32

	for i := range data.Armaments {
		armament := &data.Armaments[i]
		armamentData := armament.Default.Data()

		if armamentData.Kind != filter.Kind || armamentData.SubKind != filter.SubKind {
			// Wrong type; cannot fire.
			continue
		}

		if i >= len(playerContact.ArmamentConsumption) || playerContact.ArmamentConsumption[i] != 0 {
			// Reloading; cannot fire.
			continue
		}

		if turretIndex := armament.TurretIndex(); turretIndex >= 0 {
			if turretIndex >= len(playerContact.TurretAngles) ||
				!data.Turrets[turretIndex].CheckAzimuth(playerContact.TurretAngles[turretIndex]) {
				// Out of azimuth range; cannot fire.
				continue
			}
		}

		transform := world.ArmamentTransform(playerContact.EntityType, playerContact.Transform, playerContact.TurretAngles, i)

		directionTarget := mousePosition.Sub(transform.Position).Angle()
		angleDiff := directionTarget.Diff(transform.Direction).Abs()
		distanceSquared := mousePosition.DistanceSquared(transform.Position)

		if armament.Vertical || unconstrainedBySubKind(armamentData.SubKind) {
			// Vertically-launched armaments can fire in any horizontal
			// direction; depositors, depth charges, and mines aren't
			// constrained by direction either.
			angleDiff = 0
		}

		if angleLimit && angleDiff >= maxAngleDiff(armamentData) {
			continue
		}

		degrees := angleDiff * (180 / math32.Pi)
		score := degrees*degrees + distanceSquared
		if bestIndex < 0 || score < bestScore {
			bestIndex, bestScore = i, score
		}
	}

	return bestIndex, bestIndex >= 0
}

func unconstrainedBySubKind(subKind world.EntitySubKind) bool {
	switch subKind {
	case world.EntitySubKindAircraft, world.EntitySubKindDepositor, world.EntitySubKindDepthCharge, world.EntitySubKindMine:
		return true
	default:
		return false
	}
}

// maxAngleDiff is the largest angle to target, in radians, a sub-kind
// of armament will still accept a shot at.
func maxAngleDiff(data *world.EntityTypeData) float32 {
	switch data.SubKind {
	case world.EntitySubKindShell:
		return degreesToRadians(30)
	case world.EntitySubKindRocket:
		return degreesToRadians(45)
	case world.EntitySubKindTorpedo:
		if sonarRange(data) > 0 {
			return degreesToRadians(150)
		}
	}
	return degreesToRadians(90)
}

func sonarRange(data *world.EntityTypeData) float32 {
	var r float32
	for _, sensor := range data.Sensors {
		if sensor.Type == world.SensorTypeSonar && sensor.Range > r {
			r = sensor.Range
		}
	}
	return r
}

func degreesToRadians(degrees float32) float32 {
	return degrees * (math32.Pi / 180)
}

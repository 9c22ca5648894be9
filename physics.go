// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"github.com/chewxy/math32"
	"math/rand"
	"navalsim/world"
	"time"
)

func (h *Hub) Physics(ticks world.Ticks) {
	defer h.timeFunction("physics", time.Now())

	timeDeltaSeconds := min(ticks.Float(), 1.0)

	{
		terrain := world.Collider(h.terrain)

		// Mutations that aren't safe to apply while other goroutines may
		// still be reading or writing neighboring entities (death
		// payouts, terrain sculpting) are queued here and replayed,
		// serially and in priority order, once the parallel pass ends.
		var mutations world.MutationQueue

		h.world.SetParallel(true)
		h.world.ForEntities(func(e *world.Entity) (_, remove bool) {
			var terrainCollision bool
			remove, terrainCollision = e.Update(ticks, h.worldRadius, terrain, &mutations)

			if e.Data().Kind == world.EntityKindBoat {
				switch {
				case remove:
					mutations.Push(world.Mutation{Kind: world.MutationRemove, EntityID: e.EntityID, Entity: *e})
				case e.Data().SubKind == world.EntitySubKindDredger:
					mutations.Push(world.Mutation{Kind: world.MutationSculpt, Position: e.Position, Amount: -20})
				case e.Data().SubKind == world.EntitySubKindIcebreaker && terrainCollision:
					// Only credit the icebreaker if it actually broke
					// something; Attacker doubles as "who to score" here
					// since sculpting has no other use for it.
					mutations.Push(world.Mutation{Kind: world.MutationSculpt, Position: e.Position, Amount: -20, Attacker: e.Owner})
				}
			}
			return
		})
		h.world.SetParallel(false)

		mutations.Drain(func(m world.Mutation, _ bool) {
			switch m.Kind {
			case world.MutationRemove:
				dead := m.Entity
				if m.Message != "" {
					// Entity.Update already set a message directly (border,
					// terrain) for deaths it detects on its own; a message
					// pushed alongside this mutation (collision deaths)
					// takes precedence.
					dead.Owner.DeathMessage = m.Message
				}
				h.boatDied(&dead)
			case world.MutationSculpt:
				before := h.terrain.AtPos(m.Position)
				h.terrain.Sculpt(m.Position, m.Amount)
				if m.Attacker != nil && h.terrain.AtPos(m.Position) != before {
					m.Attacker.Score++
				}
			case world.MutationFireAll:
				h.world.EntityByID(m.EntityID, func(e *world.Entity) (remove bool) {
					if e == nil { // entity removed earlier in this same drain
						return false
					}
					h.fireAll(e, m.SubKind)
					return false
				})
			}
		})
	}

	// Mutations produced while resolving entity-to-entity collisions
	// below: scoring and death payouts for hits/rams/pickups, and the
	// homing/attraction updates that several neighbors might otherwise
	// compete to set on the same target within a single tick.
	var mutations world.MutationQueue

	// Update entity to entity things such as collisions
	h.world.ForEntitiesAndOthers(func(entityID world.EntityID, entity *world.Entity) (stop bool, radius float32) {
		// Collectibles don't collide with each other
		if entity.Data().Kind == world.EntityKindCollectible {
			return
		}

		// Only test collisions with equal or smaller entities
		radius = entity.Data().Radius * 2

		// Unless the entity needs to know about its neighbors
		if entity.Data().Kind == world.EntityKindWeapon {
			for _, sensor := range entity.Data().Sensors {
				radius = max(radius, sensor.Range)
			}
		}

		return
	}, func(entityID world.EntityID, entity *world.Entity, otherEntityID world.EntityID, other *world.Entity) (stop, remove, removeOther bool) {
		// Don't do friendly check, to allow team members to collide (See #27)
		if entity.Owner == other.Owner {
			return
		}
		entityData := entity.Data()
		otherData := other.Data()
		friendly := entity.Owner.Friendly(other.Owner)
		altitudeOverlap := entity.AltitudeOverlap(other)

		// Only do collision once when concurrent
		//if entityData.Radius < otherData.Radius || (entityData.Radius == otherData.Radius && entityID > otherEntityID) {
		//	return
		//}

		// Collisions are resolved by identifying the collision signature
		// i.e. the EntityKind of entities that are colliding
		var weapon, boat, otherBoat, collectible, decoy, obstacle *world.Entity

		if entityData.Kind == world.EntityKindBoat {
			boat = entity
		}
		if otherData.Kind == world.EntityKindBoat {
			if boat == nil {
				boat = other
			} else {
				otherBoat = other
			}
		}

		if entityData.Kind == world.EntityKindWeapon {
			weapon = entity
		} else if otherData.Kind == world.EntityKindWeapon {
			weapon = other
		}

		if otherData.Kind == world.EntityKindCollectible {
			collectible = other
		}

		// e must be either entity or other. Removal from the world is
		// still synchronous (the tree/sector data structures require the
		// remove/removeOther bool to be returned from this very call),
		// but the death payout (score reset, loot, death message) is
		// deferred through the mutation queue below.
		removeEntity := func(e *world.Entity, reason string, deathReason world.DeathReason) {
			data := e.Data()

			if data.Kind == world.EntityKindBoat {
				mutations.Push(world.Mutation{Kind: world.MutationRemove, EntityID: e.EntityID, Entity: *e, Message: reason, Reason: deathReason})
			}

			if e == entity {
				remove = true
			} else {
				removeOther = true
			}
		}

		if !entity.Collides(other, timeDeltaSeconds) {
			// Collectibles gravitate towards players
			if boat != nil && collectible != nil && altitudeOverlap {
				delta := boat.Position.Sub(collectible.Position)
				mutations.Push(world.Mutation{
					Kind:            world.MutationAttraction,
					EntityID:        collectible.EntityID,
					Position:        delta,
					DirectionTarget: delta.Angle(),
					Velocity:        20 * world.MeterPerSecond,
				})
			}

			if !friendly {
				// Mines do too
				if boat != nil && weapon != nil && altitudeOverlap && weapon.Data().SubKind == world.EntitySubKindMine {
					const attractDist = 40
					normal := boat.Direction.Vec2f()
					tangent := normal.Rot90()
					normalDistance := math32.Abs(normal.Dot(boat.Position) - normal.Dot(weapon.Position))
					tangentDistance := math32.Abs(tangent.Dot(boat.Position) - tangent.Dot(weapon.Position))
					if normalDistance < attractDist+boat.Data().Length*0.5 && tangentDistance < attractDist+boat.Data().Width*0.5 {
						delta := boat.Position.Sub(weapon.Position)
						mutations.Push(world.Mutation{
							Kind:            world.MutationAttraction,
							EntityID:        weapon.EntityID,
							Position:        delta,
							DirectionTarget: delta.Angle(),
							Velocity:        5 * world.MeterPerSecond,
						})
					}
				}

				if entityData.Kind == world.EntityKindWeapon {
					// Home towards target/decoy
					if altitudeOverlap && len(entityData.Sensors) > 0 && (otherData.Kind == world.EntityKindBoat || otherData.Kind == world.EntityKindDecoy) {
						if strength, target, ok := entity.SensorContact(other); ok {
							mutations.Push(world.Mutation{
								Kind:            world.MutationGuidance,
								EntityID:        entity.EntityID,
								DirectionTarget: target,
								SignalStrength:  strength,
							})
						}
					}

					// Aircraft (simulate weapons and anti-aircraft)
					if entityData.SubKind == world.EntitySubKindAircraft && otherData.Kind == world.EntityKindBoat {
						// Small window of opportunity to fire
						// Uses lifespan as torpedo consumption
						if entity.Lifespan > world.TicksPerSecond*3 && entity.Collides(other, 1.7+otherData.Length*0.01+entity.Hash()*0.5) {
							entity.Lifespan = 0
							torpedoType := world.EntityTypeMark18

							torpedo := &world.Entity{
								EntityType: torpedoType,
								Owner:      entity.Owner,
								Lifespan:   torpedoType.ReducedLifespan(10 * world.TicksPerSecond),
								Transform:  entity.Transform,
								Guidance: world.Guidance{
									DirectionTarget: entity.DirectionTarget + world.ToAngle((rand.Float32()-0.5)*0.1),
									VelocityTarget:  torpedoType.Data().Speed,
								},
							}

							h.spawnEntity(torpedo, 0)
						}

						if otherData.AntiAircraft != 0 {
							d2 := entity.Position.DistanceSquared(other.Position)
							r2 := square(otherData.Radius * 1.5)

							// In range of aa
							if d2 < r2 {
								chance := (1.0 - d2/r2*0.75) * otherData.AntiAircraft
								if chance*timeDeltaSeconds > rand.Float32() {
									removeEntity(entity, "shot down", world.DeathReason{})
								}
							}
						}
					}
				}
			}

			return
		}

		if !altitudeOverlap {
			return
		}

		if entityData.Kind == world.EntityKindDecoy {
			decoy = entity
		} else if otherData.Kind == world.EntityKindDecoy {
			decoy = other
		}

		if entityData.Kind == world.EntityKindObstacle {
			obstacle = entity
		} else if otherData.Kind == world.EntityKindObstacle {
			obstacle = other
		}

		switch {
		case boat != nil && collectible != nil:
			// All collectibles have these benefits; applied once this
			// pickup is drained, alongside the attacker's score.
			replenish := collectible.EntityType == world.EntityTypeCrate

			mutations.Push(world.Mutation{
				Kind:      world.MutationCollectedBy,
				EntityID:  boat.EntityID,
				Weapon:    collectible.EntityType,
				Attacker:  boat.Owner,
				Score:     1,
				Replenish: replenish,
			})

			removeEntity(collectible, "collected", world.DeathReason{})
		case boat != nil && weapon != nil && !friendly:
			damageMultiplier := boat.RecentSpawnFactor()

			dist2 := entity.Position.DistanceSquared(other.Position)
			r2 := square(boat.Data().Radius)
			damageMultiplier *= collisionMultiplier(dist2, r2)

			damage := weapon.Data().Damage * damageMultiplier
			if boat.Damage(damage) {
				mutations.Push(world.Mutation{
					Kind:     world.MutationHitBy,
					EntityID: boat.EntityID,
					Attacker: weapon.Owner,
					Weapon:   weapon.EntityType,
					Damage:   damage,
					Score:    10 + boat.Owner.Score/4,
				})
				removeEntity(boat, fmt.Sprintf("Sunk by %s with a %s!", weapon.Owner.Name, weapon.Data().SubKind.Label()), world.DeathReason{Type: world.DeathTypeSinking, Player: weapon.Owner.Name, Entity: weapon.EntityType})
			}

			removeEntity(weapon, "hit", world.DeathReason{})
		case boat != nil && otherBoat != nil:
			/*
				Goals:
				- (Cancelled) At least one boat is guaranteed to receive fatal damage
				- Ships with near equal max health and near equal health
				  percentage both die (no seemingly arbitrary survivor)
				- Low health boats still do damage, hence scale health percent
			*/

			baseDamage := timeDeltaSeconds * 1.1 * min((boat.HealthPercent()*0.5+0.5)*boat.MaxHealth(), (otherBoat.HealthPercent()*0.5+0.5)*otherBoat.MaxHealth())

			baseDamage *= boat.RecentSpawnFactor() * otherBoat.RecentSpawnFactor()

			if friendly {
				baseDamage = 0
			}

			// Process boats both orders (each time acting only on the first boat, b)
			for _, ordering := range [2][2]*world.Entity{{boat, otherBoat}, {otherBoat, boat}} {
				b := ordering[0]
				oB := ordering[1]

				d := b.Data()
				oD := oB.Data()

				posDiff := b.Position.Sub(oB.Position).Norm()

				// Approximate mass
				m := d.Width * d.Length
				oM := oD.Width * oD.Length
				massDiff := oM / m

				if baseDamage > 0 {
					const ramDamage = 3
					damage := baseDamage

					// Colliding with center of boat is more deadly
					frontPos := oB.Position.AddScaled(oB.Direction.Vec2f(), oD.Length*0.5)
					dist2 := frontPos.DistanceSquared(b.Position)
					damage *= collisionMultiplier(dist2, square(d.Radius))

					// Rams take less damage from ramming
					isRam := d.SubKind == world.EntitySubKindRam
					if isRam {
						massDiff *= 0.5
						damage *= 1.0 / ramDamage
					}

					// Rams give more damage while ramming
					isOtherRam := oD.SubKind == world.EntitySubKindRam
					if isOtherRam {
						massDiff *= 2
						damage *= ramDamage
					}

					if b.Damage(damage) {
						verb := "Crashed into"
						if isOtherRam {
							verb = "Rammed by"
						}
						mutations.Push(world.Mutation{
							Kind:     world.MutationCollidedWithBoat,
							EntityID: b.EntityID,
							Attacker: oB.Owner,
							Damage:   damage,
							Ram:      isOtherRam,
						})
						deathType := world.DeathTypeCollision
						if isOtherRam {
							deathType = world.DeathTypeRamming
						}
						removeEntity(b, fmt.Sprintf("%s %s!", verb, oB.Owner.Name), world.DeathReason{Type: deathType, Player: oB.Owner.Name})
					}
				}

				b.Velocity = b.Velocity.AddClamped(6*posDiff.Dot(b.Direction.Vec2f())*massDiff, 15*world.MeterPerSecond)
			}
		case boat != nil && obstacle != nil:
			posDiff := boat.Position.Sub(obstacle.Position).Norm()
			boat.Velocity = boat.Velocity.AddClamped(6*posDiff.Dot(boat.Direction.Vec2f()), 30*world.MeterPerSecond)
			if boat.Damage(timeDeltaSeconds * boat.MaxHealth() * 0.15) {
				removeEntity(boat, fmt.Sprintf("Crashed into %s!", obstacle.Data().Label), world.DeathReason{Type: world.DeathTypeCollision, Entity: obstacle.EntityType})
			}
		case !(friendly || (boat != nil && decoy != nil)):
			// Other ex weapon vs. weapon collision
			if entityData.Kind != world.EntityKindObstacle {
				removeEntity(entity, fmt.Sprintf("Crashed into %s!", other.Data().Label), world.DeathReason{Type: world.DeathTypeCollision, Entity: other.EntityType})
			}
			if otherData.Kind != world.EntityKindObstacle {
				removeEntity(other, fmt.Sprintf("Crashed into %s!", entity.Data().Label), world.DeathReason{Type: world.DeathTypeCollision, Entity: entity.EntityType})
			}
		}

		return
	})

	mutations.Drain(func(m world.Mutation, isLastOfKind bool) {
		switch m.Kind {
		case world.MutationRemove:
			dead := m.Entity
			if m.Message != "" {
				dead.Owner.DeathMessage = m.Message
			}
			if m.Reason.Type != "" {
				dead.Owner.DeathReason = m.Reason
			}
			h.boatDied(&dead)
		case world.MutationHitBy, world.MutationCollidedWithBoat:
			if m.Attacker != nil {
				m.Attacker.Score += m.Score
			}
		case world.MutationCollectedBy:
			if m.Attacker != nil {
				m.Attacker.Score += m.Score
			}
			h.world.EntityByID(m.EntityID, func(boat *world.Entity) (remove bool) {
				if boat == nil { // boat itself died earlier in this same drain
					return false
				}
				boat.Repair(0.05)
				if m.Replenish {
					boat.Replenish(1)
				}
				return false
			})
		case world.MutationAttraction:
			h.world.EntityByID(m.EntityID, func(e *world.Entity) (remove bool) {
				if e == nil { // target removed earlier in this same drain
					return false
				}
				e.Direction = e.Direction.Lerp(m.DirectionTarget, timeDeltaSeconds*5)
				e.Velocity = m.Velocity
				return false
			})
		case world.MutationGuidance:
			if !isLastOfKind {
				// A weapon can pick up sensor contacts from several
				// neighbors in the same tick; only the strongest signal
				// (sorted to apply last) actually re-homes it.
				return
			}
			h.world.EntityByID(m.EntityID, func(e *world.Entity) (remove bool) {
				if e == nil { // weapon removed earlier in this same drain
					return false
				}
				e.ApplyGuidance(m.DirectionTarget, m.SignalStrength)
				return false
			})
		}
	})
}

// fireAll launches every armament of the given sub-kind carried by e,
// pointed the way e is already facing. Used when an entity like an
// ASROC rocket reaches the end of its own lifespan but still has
// unlaunched armaments: rather than simply disappearing, it empties
// its tubes first (world.MutationFireAll).
func (h *Hub) fireAll(e *world.Entity, subKind world.EntitySubKind) {
	data := e.Data()
	for i, armament := range data.Armaments {
		if armament.Subtype != subKind {
			continue
		}

		armamentEntityData := armament.Default.Data()
		transform := e.ArmamentTransform(i)
		transform.Velocity = transform.Velocity.AddClamped(0, 50*world.MeterPerSecond)

		h.spawnEntity(&world.Entity{
			EntityType: armament.Default,
			Owner:      e.Owner,
			Transform:  transform,
			Lifespan:   armament.Default.ReducedLifespan(world.ToTicks(150 / clamp(armamentEntityData.Speed.Float(), 15, 50))),
			Guidance: world.Guidance{
				DirectionTarget: e.Direction,
				VelocityTarget:  armamentEntityData.Speed,
			},
		}, 0)
	}
}

// boatDied removes score and spawns crates
func (h *Hub) boatDied(e *world.Entity) {
	// Lose 1/2 score if you die
	// Cap at 80 so can't get max level right away
	e.Owner.Score /= 2
	if e.Owner.Score > 80 {
		e.Owner.Score = 80
	}

	data := e.Data()

	// Loot is based on the length of the boat
	loot := data.Length * 0.25 * (rand.Float32()*0.1 + 0.9)

	// Makes spawn killing less profitable
	loot *= e.RecentSpawnFactor()

	for i := 0; i < int(loot); i++ {
		crate := &world.Entity{
			EntityType: world.EntityTypeCrate,
			Transform:  e.Transform,
		}

		h.spawnEntity(crate, data.Radius*0.5)
	}
}

func collisionMultiplier(d2, r2 float32) float32 {
	return clamp(max(r2-d2+90, 0)/r2, 0.5, 1.5)
}

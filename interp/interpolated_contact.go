// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interp smooths server.Contact snapshots for a consumer (a
// renderer, a bot, a replay tool) that wants a continuously moving
// view of an entity instead of the discrete positions in each Update.
package interp

import (
	"github.com/chewxy/math32"
	"math/rand"
	"navalsim"
	"navalsim/world"
)

// ErrorMax is the upper clamp on InterpolatedContact.Error.
const ErrorMax = 10.0

// InterpolatedContact tracks one entity across Updates, maintaining a
// Model (snapped to the latest server value) and a View (eased toward
// Model every frame) along with an error metric that controls how
// hard the View is pulled toward the Model.
type InterpolatedContact struct {
	ID world.EntityID

	// Model is the latest value received from the server.
	Model server.Contact
	// View is what a consumer should render; it chases Model.
	View server.Contact

	// Error is a smoothed measure of discrepancy between Model and
	// View, in [0, ErrorMax]. Larger error pulls View toward Model
	// harder.
	Error float32

	// Idle counts ticks since this entity last appeared in an Update.
	Idle world.Ticks
}

// NewInterpolatedContact starts a contact with Model and View equal,
// as when an entity is first seen.
func NewInterpolatedContact(id world.EntityID, contact server.Contact) *InterpolatedContact {
	return &InterpolatedContact{
		ID:    id,
		Model: contact,
		View:  contact,
	}
}

// Snap replaces Model with a freshly received contact and resets Idle.
// View is left alone; Interpolate eases it toward the new Model.
func (c *InterpolatedContact) Snap(contact server.Contact) {
	c.Model = contact
	c.Idle = 0
}

// UpdateErrorBound integrates the discrepancy between Model and View
// over an elapsed frame of elapsedSeconds, decaying prior error by
// half per second and clamping the result to [0, ErrorMax].
func (c *InterpolatedContact) UpdateErrorBound(elapsedSeconds float32) {
	positional := c.Model.Position.DistanceSquared(c.View.Position)
	directional := c.Model.Direction.Diff(c.View.Direction).Abs()
	velocity := math32.Abs(c.Model.Velocity.Float() - c.View.Velocity.Float())

	c.Error = clamp(
		c.Error*math32.Pow(0.5, elapsedSeconds)+elapsedSeconds*(positional*0.4+directional*2.0+velocity*0.08),
		0, ErrorMax,
	)
}

// Particle is a single rendering-agnostic muzzle-flash effect emitted
// by GenerateParticles; a consumer's renderer decides how to draw it.
type Particle struct {
	Position   world.Vec2f
	Velocity   world.Vec2f
	Radius     float32
	Color      float32
	Smoothness float32
	// Submerged is true if the firing contact was underwater when it
	// fired, letting a consumer bucket particles by altitude layer.
	Submerged bool
}

const muzzleFlashCount = 10

// GenerateParticles infers weapon discharges from the transition of
// an armament's reload-remaining count from zero (View, i.e. ready)
// to non-zero (Model, i.e. just fired), and returns muzzle-flash
// particles for each newly fired Shell, Rocket, or Missile armament.
// It requires both contacts to report the same entity type and a
// matching, fully-populated ArmamentConsumption/TurretAngles shape.
func (c *InterpolatedContact) GenerateParticles() []Particle {
	if c.View.EntityType != c.Model.EntityType ||
		len(c.View.ArmamentConsumption) == 0 || len(c.Model.ArmamentConsumption) == 0 ||
		len(c.View.ArmamentConsumption) != len(c.Model.ArmamentConsumption) {
		return nil
	}

	data := c.Model.EntityType.Data()
	if len(c.View.TurretAngles) != len(data.Turrets) {
		return nil
	}
	var particles []Particle

	boatVelocity := c.View.Direction.Vec2f().Mul(c.View.Velocity.Float())
	submerged := c.View.Altitude < 0

	for i, viewReload := range c.View.ArmamentConsumption {
		modelReload := c.Model.ArmamentConsumption[i]
		if modelReload == 0 || viewReload != 0 {
			// Wasn't just fired.
			continue
		}

		armament := &data.Armaments[i]
		childData := armament.Default.Data()
		if !isMuzzleFlashSubKind(childData.SubKind) {
			continue
		}

		armamentTransform := world.ArmamentTransform(c.View.EntityType, c.View.Transform, c.View.TurretAngles, i)

		var direction world.Vec2f
		if !armament.Vertical {
			direction = armamentTransform.Direction.Vec2f()
		}

		forwardOffset := float32(2.0)
		forwardVelocity := 0.5 * min(childData.Speed.Float(), 100.0)

		for p := 0; p < muzzleFlashCount; p++ {
			fraction := float32(p) * (1.0 / float32(muzzleFlashCount))
			particles = append(particles, Particle{
				Position: armamentTransform.Position.AddScaled(direction, forwardOffset),
				Velocity: boatVelocity.
					AddScaled(direction, forwardVelocity*fraction).
					AddScaled(direction.Rot90(), forwardVelocity*0.15*(rand.Float32()-0.5)),
				Radius:     clamp(childData.Width*5.0, 1.0, 3.0),
				Color:      -1.0,
				Smoothness: 1.0,
				Submerged:  submerged,
			})
		}
	}

	return particles
}

// Interpolate eases View toward Model by elapsedSeconds*Error, then
// advances both by elapsedSeconds of straight-line kinematics so that
// motion stays smooth between Updates. playerEntityID, when it equals
// this contact's ID, suppresses guidance interpolation so the player's
// own boat doesn't visibly jerk when its commanded heading changes.
func (c *InterpolatedContact) Interpolate(elapsedSeconds float32, playerEntityID world.EntityID) {
	interpolateGuidance := c.ID != playerEntityID
	factor := clamp(elapsedSeconds*c.Error, 0, 1)

	c.View.Position = c.View.Position.Lerp(c.Model.Position, factor)
	c.View.Direction = c.View.Direction.Lerp(c.Model.Direction, factor)
	c.View.Velocity = world.ToVelocity(world.Lerp(c.View.Velocity.Float(), c.Model.Velocity.Float(), factor))
	if interpolateGuidance {
		c.View.Guidance.DirectionTarget = c.View.Guidance.DirectionTarget.Lerp(c.Model.Guidance.DirectionTarget, factor)
		c.View.Guidance.VelocityTarget = world.Lerp(c.View.Guidance.VelocityTarget, c.Model.Guidance.VelocityTarget, factor)
	}

	simulate(&c.Model.Transform, elapsedSeconds)
	simulate(&c.View.Transform, elapsedSeconds)
}

// simulate advances a transform's position by its own velocity,
// extrapolating motion between server snapshots.
func simulate(transform *world.Transform, elapsedSeconds float32) {
	transform.Position = transform.Position.AddScaled(transform.Direction.Vec2f(), transform.Velocity.Float()*elapsedSeconds)
}

func isMuzzleFlashSubKind(subKind world.EntitySubKind) bool {
	switch subKind {
	case world.EntitySubKindShell, world.EntitySubKindRocket, world.EntitySubKindMissile:
		return true
	default:
		return false
	}
}

func min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clamp(val, minimum, maximum float32) float32 {
	return min(max(val, minimum), maximum)
}

// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "sync"

// MutationKind identifies which variant of data a Mutation carries.
type MutationKind uint8

const (
	// MutationFireAll tells a dying/expiring entity (an ASROC-style boat
	// or armament) to launch every armament of a sub-kind before it goes
	// away, rather than losing its last salvo to timing.
	MutationFireAll MutationKind = iota
	// MutationRemove despawns an entity and, if it's a boat, pays out the
	// death (score reset, loot).
	MutationRemove
	// MutationHitBy applies weapon damage and, if lethal, scores the
	// shooter and removes the target.
	MutationHitBy
	// MutationCollidedWithBoat applies boat-vs-boat ramming damage and
	// impulse, scoring the rammer if lethal.
	MutationCollidedWithBoat
	// MutationCollectedBy scores a player and removes a collectible.
	MutationCollectedBy
	// MutationAttraction nudges a collectible or mine towards a nearby boat.
	MutationAttraction
	// MutationGuidance re-homes a weapon's direction target onto a sensor
	// contact; only the strongest signal of a tick takes effect.
	MutationGuidance
	// MutationSculpt carves the terrain (Dredger wake, ice/sand breaking).
	MutationSculpt
	// MutationReloadLimitedArmament re-arms a limited-use armament slot
	// once its previously-launched child has been accounted for.
	MutationReloadLimitedArmament
)

// Mutation is a side effect recorded during a parallel pass over the
// world (ForEntities with SetParallel(true)) and applied afterwards,
// serially, in priority order. Some effects — paying out a kill,
// carving the terrain, reloading a limited-use armament — aren't safe
// to perform while other goroutines may still be reading or writing
// neighboring entities, so they're deferred instead of applied inline.
type Mutation struct {
	Kind MutationKind

	EntityID EntityID
	Entity   Entity // snapshot, valid for MutationRemove/MutationFireAll

	Position Vec2f   // valid for MutationSculpt; the aim delta for MutationAttraction
	Amount   float32 // valid for MutationSculpt

	ArmamentIndex int           // valid for MutationReloadLimitedArmament
	SubKind       EntitySubKind // valid for MutationFireAll (which sub-kind of armament to fire)

	Attacker *Player    // valid for MutationHitBy/MutationCollidedWithBoat/MutationCollectedBy: who gets scored
	Weapon   EntityType // valid for MutationHitBy (weapon type) and MutationCollectedBy (collectible type)
	Damage    float32     // valid for MutationHitBy/MutationCollidedWithBoat
	Ram       bool        // valid for MutationCollidedWithBoat
	Score     int         // valid for MutationHitBy/MutationCollidedWithBoat/MutationCollectedBy
	Replenish bool        // valid for MutationCollectedBy: whether the collectible also refills ammo (crates)
	Message   string      // valid for MutationRemove: death message shown to the boat's owner
	Reason    DeathReason // valid for MutationRemove: structured cause, gates team-respawn cooldown

	Velocity        Velocity // valid for MutationAttraction: velocity to assume once attracted
	DirectionTarget Angle    // valid for MutationAttraction/MutationGuidance
	SignalStrength  float32  // valid for MutationGuidance: strength of the sensor contact driving this update

	relativePriority float32
}

// absolutePriority orders mutation kinds relative to each other; higher
// goes first. Removal happens before anything that might act on a
// now-gone entity; reloads and sculpting, which nothing else depends
// on, resolve last.
func (m *Mutation) absolutePriority() int {
	switch m.Kind {
	case MutationFireAll:
		return 127 // so a dying ASROC-style launcher can still fire before it expires
	case MutationRemove:
		return 126
	case MutationHitBy:
		return 125
	case MutationCollidedWithBoat:
		return 124
	case MutationCollectedBy:
		return 123
	case MutationAttraction:
		return 101
	case MutationGuidance:
		return 100
	default:
		return 0
	}
}

// relativePriorityOf orders mutations of the same kind relative to
// each other; higher goes first (is applied earlier).
func relativePriorityOf(m *Mutation) float32 {
	switch m.Kind {
	case MutationHitBy, MutationCollidedWithBoat:
		// Highest damage goes first.
		return m.Damage
	case MutationGuidance:
		// The last guidance applied (lowest priority, so it sorts to the
		// end) is the one that sticks; weighting by -signalStrength means
		// the strongest signal is applied last and wins.
		return -m.SignalStrength
	case MutationAttraction:
		// Closest attraction (smallest delta) takes effect last, since it
		// overwrites whatever an earlier, farther attraction set.
		return m.Position.LengthSquared()
	default:
		return 0
	}
}

// MutationQueue collects Mutations concurrently during a parallel pass
// and replays them afterwards in a single deterministic order.
type MutationQueue struct {
	mu        sync.Mutex
	mutations []Mutation
}

// Push records a mutation. Safe to call from multiple goroutines.
func (q *MutationQueue) Push(m Mutation) {
	m.relativePriority = relativePriorityOf(&m)
	q.mu.Lock()
	q.mutations = append(q.mutations, m)
	q.mu.Unlock()
}

// Len returns the number of mutations currently queued.
func (q *MutationQueue) Len() int {
	return len(q.mutations)
}

// Drain sorts the queued mutations by (absolutePriority, relative
// priority, insertion order within ties), calls apply once per
// mutation in that order, and clears the queue. isLastOfKind is true
// iff this is the last-applied mutation of this Kind targeting this
// EntityID — MutationGuidance uses it to apply only the strongest
// signal instead of every homing update in sequence. Not safe to call
// concurrently with Push; call it only after the parallel pass that
// fed the queue has finished.
func (q *MutationQueue) Drain(apply func(m Mutation, isLastOfKind bool)) {
	sortMutations(q.mutations)

	type key struct {
		EntityID
		MutationKind
	}

	lastIndexOfKind := make(map[key]int, len(q.mutations))
	for i, m := range q.mutations {
		lastIndexOfKind[key{m.EntityID, m.Kind}] = i
	}

	for i, m := range q.mutations {
		isLast := lastIndexOfKind[key{m.EntityID, m.Kind}] == i
		apply(m, isLast)
	}

	q.mutations = q.mutations[:0]
}

// sortMutations is an insertion sort, stable on original push order:
// the queue is expected to hold at most a few dozen entries per tick,
// where an O(n^2) stable sort over a tiny, mostly-ordered slice beats
// the overhead of sort.Slice's reflection-based comparator.
func sortMutations(m []Mutation) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && less(m[j], m[j-1]); j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}

// less reports whether a sorts strictly before b, i.e. a is applied first.
func less(a, b Mutation) bool {
	if pa, pb := a.absolutePriority(), b.absolutePriority(); pa != pb {
		return pa > pb
	}
	return a.relativePriority > b.relativePriority
}

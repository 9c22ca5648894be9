// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"sync"
	"testing"
)

func TestMutationQueue_DrainOrder(t *testing.T) {
	var q MutationQueue

	q.Push(Mutation{Kind: MutationReloadLimitedArmament, ArmamentIndex: 1})
	q.Push(Mutation{Kind: MutationSculpt, Position: Vec2f{X: 1}})
	q.Push(Mutation{Kind: MutationRemove, EntityID: 7})
	q.Push(Mutation{Kind: MutationSculpt, Position: Vec2f{X: 2}})
	q.Push(Mutation{Kind: MutationHitBy, Damage: 5})
	q.Push(Mutation{Kind: MutationFireAll, SubKind: EntitySubKindAircraft})

	var order []MutationKind
	q.Drain(func(m Mutation, _ bool) {
		order = append(order, m.Kind)
	})

	want := []MutationKind{
		MutationFireAll,
		MutationRemove,
		MutationHitBy,
		MutationReloadLimitedArmament,
		MutationSculpt,
		MutationSculpt,
	}
	if len(order) != len(want) {
		t.Fatalf("got %d mutations, want %d", len(order), len(want))
	}
	for i, k := range want {
		if order[i] != k {
			t.Errorf("position %d: got kind %d, want %d", i, order[i], k)
		}
	}

	// Same-kind, same-priority mutations must keep insertion order.
	var sculpts []Vec2f
	q.Push(Mutation{Kind: MutationSculpt, Position: Vec2f{X: 10}})
	q.Push(Mutation{Kind: MutationSculpt, Position: Vec2f{X: 20}})
	q.Drain(func(m Mutation, _ bool) {
		if m.Kind == MutationSculpt {
			sculpts = append(sculpts, m.Position)
		}
	})
	if len(sculpts) != 2 || sculpts[0].X != 10 || sculpts[1].X != 20 {
		t.Errorf("sculpts out of insertion order: %v", sculpts)
	}
}

func TestMutationQueue_HitByOrdersByDamage(t *testing.T) {
	var q MutationQueue

	q.Push(Mutation{Kind: MutationHitBy, EntityID: 1, Damage: 5})
	q.Push(Mutation{Kind: MutationHitBy, EntityID: 2, Damage: 50})
	q.Push(Mutation{Kind: MutationHitBy, EntityID: 3, Damage: 20})

	var order []EntityID
	q.Drain(func(m Mutation, _ bool) {
		order = append(order, m.EntityID)
	})

	want := []EntityID{2, 3, 1}
	for i, id := range want {
		if order[i] != id {
			t.Errorf("position %d: got entity %d, want %d", i, order[i], id)
		}
	}
}

func TestMutationQueue_GuidanceLastOfKindIsStrongestSignal(t *testing.T) {
	var q MutationQueue

	const target EntityID = 42
	q.Push(Mutation{Kind: MutationGuidance, EntityID: target, SignalStrength: 0.2, DirectionTarget: 1})
	q.Push(Mutation{Kind: MutationGuidance, EntityID: target, SignalStrength: 0.9, DirectionTarget: 2})
	q.Push(Mutation{Kind: MutationGuidance, EntityID: target, SignalStrength: 0.5, DirectionTarget: 3})
	// A mutation against a different entity must not affect isLastOfKind
	// bookkeeping for the target entity.
	q.Push(Mutation{Kind: MutationGuidance, EntityID: target + 1, SignalStrength: 0.99, DirectionTarget: 4})

	var applied Angle
	q.Drain(func(m Mutation, isLast bool) {
		if m.Kind == MutationGuidance && m.EntityID == target && isLast {
			applied = m.DirectionTarget
		}
	})

	if applied != 2 {
		t.Errorf("last-of-kind guidance applied = %v, want the strongest signal's target (2)", applied)
	}
}

func TestMutationQueue_DrainClears(t *testing.T) {
	var q MutationQueue
	q.Push(Mutation{Kind: MutationRemove})
	q.Drain(func(Mutation, bool) {})

	if q.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", q.Len())
	}

	calls := 0
	q.Drain(func(Mutation, bool) { calls++ })
	if calls != 0 {
		t.Errorf("Drain on empty queue called apply %d times", calls)
	}
}

func TestMutationQueue_ConcurrentPush(t *testing.T) {
	var q MutationQueue
	var wg sync.WaitGroup

	const goroutines, perGoroutine = 8, 50
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				q.Push(Mutation{Kind: MutationRemove})
			}
		}()
	}
	wg.Wait()

	if got, want := q.Len(), goroutines*perGoroutine; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

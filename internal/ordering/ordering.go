// Package ordering computes how sibling positions change when an item is appended to,
// moved within, or moved between scopes. A scope is the parent whose children share one
// dense 0..n-1 sequence: a board for its lists, a column for its tasks.
//
// The package only plans. Stores apply a Plan inside one transaction: every Shift first,
// then the mover is written at Target.
package ordering

import (
	"fmt"
	"math"
	"sort"
)

// Unbounded is the upper bound of a shift that runs to the end of a scope.
const Unbounded = math.MaxInt32

// Shift adds Delta to the order of every sibling in Scope whose order lies in [From, To].
// The mover itself is never part of a shift.
type Shift struct {
	Scope string
	From  int
	To    int
	Delta int
}

// Plan is the set of sibling shifts plus the mover's final order for one reorder.
type Plan struct {
	Shifts []Shift
	// Target is the mover's final order.
	Target int
	// Noop means neither the mover nor any sibling changes.
	Noop bool
}

// Next returns the order of a newly appended sibling given the scope's current maximum.
// Stores report -1 for an empty scope.
func Next(currentMax int) int {
	if currentMax < -1 {
		currentMax = -1
	}
	return currentMax + 1
}

// Clamp limits order to [0, max].
func Clamp(order, max int) int {
	if max < 0 {
		return 0
	}
	if order < 0 {
		return 0
	}
	if order > max {
		return max
	}
	return order
}

// Within plans a move inside one scope of count siblings (the mover included).
// newOrder is clamped to [0, count-1].
func Within(scope string, count, oldOrder, newOrder int) Plan {
	target := Clamp(newOrder, count-1)
	switch {
	case target == oldOrder:
		return Plan{Target: oldOrder, Noop: true}
	case target > oldOrder:
		return Plan{
			Target: target,
			Shifts: []Shift{{Scope: scope, From: oldOrder + 1, To: target, Delta: -1}},
		}
	default:
		return Plan{
			Target: target,
			Shifts: []Shift{{Scope: scope, From: target, To: oldOrder - 1, Delta: 1}},
		}
	}
}

// Across plans a move from one scope to another. targetCount is the number of siblings
// already in the target scope; an index at or past it appends.
func Across(fromScope string, oldOrder int, toScope string, targetCount, newOrder int) Plan {
	target := Clamp(newOrder, targetCount)
	shifts := []Shift{{Scope: fromScope, From: oldOrder + 1, To: Unbounded, Delta: -1}}
	if target < targetCount {
		shifts = append(shifts, Shift{Scope: toScope, From: target, To: Unbounded, Delta: 1})
	}
	return Plan{Target: target, Shifts: shifts}
}

// Move dispatches to Within or Across. sourceCount includes the mover; targetCount does not
// and is ignored for same-scope moves.
func Move(fromScope, toScope string, oldOrder, newOrder, sourceCount, targetCount int) Plan {
	if fromScope == toScope {
		return Within(fromScope, sourceCount, oldOrder, newOrder)
	}
	return Across(fromScope, oldOrder, toScope, targetCount, newOrder)
}

// Apply runs a plan against an in-memory view of positions keyed by item id, with the
// scope of each item in scopes. It is the reference semantics stores must reproduce.
func Apply(plan Plan, orders map[string]int, scopes map[string]string, moverID, targetScope string) {
	if plan.Noop {
		return
	}
	for _, s := range plan.Shifts {
		for id, o := range orders {
			if id == moverID || scopes[id] != s.Scope {
				continue
			}
			if o >= s.From && o <= s.To {
				orders[id] = o + s.Delta
			}
		}
	}
	orders[moverID] = plan.Target
	scopes[moverID] = targetScope
}

// CheckDense reports an error unless orders is a permutation of 0..len(orders)-1.
func CheckDense(orders []int) error {
	sorted := append([]int(nil), orders...)
	sort.Ints(sorted)
	for i, o := range sorted {
		if o != i {
			return fmt.Errorf("order sequence %v is not dense at index %d", sorted, i)
		}
	}
	return nil
}

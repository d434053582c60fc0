// SPDX-License-Identifier: AGPL-3.0-or-later

package topo

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

func indexOf(order []string, n string) int {
	for i, v := range order {
		if v == n {
			return i
		}
	}
	return -1
}

func TestSort_LinearChain(t *testing.T) {
	order, err := Sort([]string{"a", "b"}, []Edge{{From: "a", To: "b"}})
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if indexOf(order, "b") >= indexOf(order, "a") {
		t.Errorf("order = %v, want b before a", order)
	}
}

func TestSort_NoEdges(t *testing.T) {
	order, err := Sort([]string{"c", "a", "b"}, nil)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSort_Deterministic(t *testing.T) {
	nodes := []string{"z", "y", "x", "w"}
	edges := []Edge{{From: "y", To: "w"}, {From: "z", To: "w"}}

	first, err := Sort(nodes, edges)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := Sort(nodes, edges)
		if err != nil {
			t.Fatalf("Sort() error on run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Errorf("run %d = %v, want %v", i, again, first)
		}
	}
}

func TestSort_CycleDetected(t *testing.T) {
	_, err := Sort([]string{"x", "y"}, []Edge{{From: "x", To: "y"}, {From: "y", To: "x"}})
	if err == nil {
		t.Fatal("expected a cycle error, got nil")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}

	got := append([]string(nil), cycleErr.Nodes...)
	sort.Strings(got)
	want := []string{"x", "y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cycleErr.Nodes = %v, want %v", got, want)
	}
}

func TestSort_NodesImpliedByEdgesOnly(t *testing.T) {
	order, err := Sort(nil, []Edge{{From: "a", To: "b"}})
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	want := []string{"b", "a"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

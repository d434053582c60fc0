// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"testing"

	"bqport/pkg/logging"
	"bqport/pkg/pool"
	"bqport/pkg/resource"
	"bqport/pkg/warehouse/fake"
)

func TestPlanner_ForceDeletesOrphanedRoutine(t *testing.T) {
	client := fake.New("proj")
	datasetID := resource.ID{Project: "proj", Dataset: "ds", Kind: resource.KindSchema}
	ds := client.Dataset(datasetID).(*fake.Dataset)
	ds.Seed(nil, []string{"r1", "r2"}, nil)

	p := New(client, logging.NewLogger(false), "proj", true, false, nil)
	plan, err := p.Plan(context.Background(), "/root", datasetID, []string{"/root/proj/ds/@routines/r1/ddl.sql"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Tasks) != 1 {
		t.Fatalf("len(plan.Tasks) = %d, want 1", len(plan.Tasks))
	}
	if plan.Tasks[0].Name != "proj/ds/(DELETE)/ROUTINE/r2" {
		t.Errorf("plan.Tasks[0].Name = %q, want %q", plan.Tasks[0].Name, "proj/ds/(DELETE)/ROUTINE/r2")
	}

	if err := plan.Execute(context.Background(), pool.New(2), logging.NewLogger(false)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := string(plan.Tasks[0].Status()); got != "success" {
		t.Errorf("plan.Tasks[0].Status() = %v, want success", got)
	}
}

func TestPlanner_DryRunDoesNotDelete(t *testing.T) {
	client := fake.New("proj")
	datasetID := resource.ID{Project: "proj", Dataset: "ds", Kind: resource.KindSchema}
	ds := client.Dataset(datasetID).(*fake.Dataset)
	ds.Seed([]string{"orphan"}, nil, nil)

	p := New(client, logging.NewLogger(false), "proj", false, true, nil)
	plan, err := p.Plan(context.Background(), "/root", datasetID, nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Tasks) != 1 {
		t.Fatalf("len(plan.Tasks) = %d, want 1", len(plan.Tasks))
	}

	if err := plan.Execute(context.Background(), pool.New(2), logging.NewLogger(false)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := plan.Tasks[0].Message(); got != "would delete (dry run)" {
		t.Errorf("plan.Tasks[0].Message() = %q, want %q", got, "would delete (dry run)")
	}

	tables, err := ds.Tables(context.Background())
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(tables) != 1 {
		t.Errorf("len(tables) = %d, want 1 (dry run must not delete)", len(tables))
	}
}

func TestPlanner_PromptDeclinedSkipsKind(t *testing.T) {
	client := fake.New("proj")
	datasetID := resource.ID{Project: "proj", Dataset: "ds", Kind: resource.KindSchema}
	ds := client.Dataset(datasetID).(*fake.Dataset)
	ds.Seed([]string{"orphan"}, nil, nil)

	declineAll := func(dataset resource.ID, kind resource.Kind, names []string) (bool, error) {
		return false, nil
	}

	p := New(client, logging.NewLogger(false), "proj", false, false, declineAll)
	plan, err := p.Plan(context.Background(), "/root", datasetID, nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Tasks) != 0 {
		t.Errorf("len(plan.Tasks) = %d, want 0 when the prompt declines", len(plan.Tasks))
	}
}

// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlanalyze

import (
	"reflect"
	"testing"

	"bqport/pkg/resource"
	"bqport/pkg/sqlast/fake"
)

func TestAnalyze_TableStatementDestination(t *testing.T) {
	root := fake.New("table_statement", "CREATE TABLE ds.tbl (x INT64)").
		WithTableName(fake.New("identifier", "ds.tbl"))

	result := Analyze(root)
	wantDest := []Destination{{Identifier: "ds.tbl", Kind: resource.KindTable}}
	if !reflect.DeepEqual(result.Destinations, wantDest) {
		t.Errorf("Destinations = %v, want %v", result.Destinations, wantDest)
	}
	if len(result.References) != 0 {
		t.Errorf("References = %v, want empty", result.References)
	}
}

func TestAnalyze_CrossFileReference(t *testing.T) {
	fromItem := fake.New(typeFromItem, "b").WithTableName(fake.New("identifier", "b"))
	root := fake.New("table_statement", "CREATE TABLE a AS SELECT * FROM b").
		WithTableName(fake.New("identifier", "a"))
	root.AddChild(fromItem)

	result := Analyze(root)
	wantDest := []Destination{{Identifier: "a", Kind: resource.KindTable}}
	if !reflect.DeepEqual(result.Destinations, wantDest) {
		t.Errorf("Destinations = %v, want %v", result.Destinations, wantDest)
	}
	wantRefs := []string{"b"}
	if !reflect.DeepEqual(result.References, wantRefs) {
		t.Errorf("References = %v, want %v", result.References, wantRefs)
	}
}

func TestAnalyze_CTESuppression(t *testing.T) {
	// SELECT * FROM (WITH c AS (SELECT 1) SELECT * FROM c)
	cte := fake.New(typeNonRecursiveCTE, "c AS (SELECT 1)").WithAliasName(fake.New("identifier", "c"))
	fromC := fake.New(typeFromItem, "c").WithTableName(fake.New("identifier", "c"))

	root := fake.New("query_statement", "SELECT * FROM (...)")
	root.AddChild(cte)
	root.AddChild(fromC)

	result := Analyze(root)
	if len(result.Destinations) != 0 {
		t.Errorf("Destinations = %v, want empty", result.Destinations)
	}
	if len(result.References) != 0 {
		t.Errorf("References = %v, want empty", result.References)
	}
}

func TestAnalyze_SchemaStatement(t *testing.T) {
	root := fake.New(typeSchemaStatement, "CREATE SCHEMA ds").
		WithSchemaName(fake.New("identifier", "ds"))

	result := Analyze(root)
	want := []Destination{{Identifier: "ds", Kind: resource.KindSchema}}
	if !reflect.DeepEqual(result.Destinations, want) {
		t.Errorf("Destinations = %v, want %v", result.Destinations, want)
	}
}

func TestAnalyze_RoutineStatement(t *testing.T) {
	root := fake.New(typeFunctionStatement, "CREATE FUNCTION ds.fn() ...").
		WithRoutineName(fake.New("identifier", "ds.fn"))

	result := Analyze(root)
	want := []Destination{{Identifier: "ds.fn", Kind: resource.KindRoutine}}
	if !reflect.DeepEqual(result.Destinations, want) {
		t.Errorf("Destinations = %v, want %v", result.Destinations, want)
	}
}

func TestAnalyze_ModelStatement(t *testing.T) {
	root := fake.New(typeCreateModelStatement, "CREATE MODEL ds.m1 ...").
		WithModelName(fake.New("identifier", "ds.m1"))

	result := Analyze(root)
	want := []Destination{{Identifier: "ds.m1", Kind: resource.KindModel}}
	if !reflect.DeepEqual(result.Destinations, want) {
		t.Errorf("Destinations = %v, want %v", result.Destinations, want)
	}
}

func TestAnalyze_CallStatementIsReferenceNotDestination(t *testing.T) {
	root := fake.New(typeCallStatement, "CALL ds.proc()").
		WithRoutineName(fake.New("identifier", "ds.proc"))

	result := Analyze(root)
	if len(result.Destinations) != 0 {
		t.Errorf("Destinations = %v, want empty", result.Destinations)
	}
	want := []string{"ds.proc"}
	if !reflect.DeepEqual(result.References, want) {
		t.Errorf("References = %v, want %v", result.References, want)
	}
}

func TestAnalyze_FunctionCallReference(t *testing.T) {
	call := fake.New(typeFunctionCall, "ds.fn()").WithFunction(fake.New("identifier", "ds.fn"))
	root := fake.New("query_statement", "SELECT ds.fn()")
	root.AddChild(call)

	result := Analyze(root)
	want := []string{"ds.fn"}
	if !reflect.DeepEqual(result.References, want) {
		t.Errorf("References = %v, want %v", result.References, want)
	}
}

func TestAnalyze_CatchAllDestinationFallback(t *testing.T) {
	// INSERT/UPDATE/DELETE/MERGE are not modeled as their own named
	// statement types; they fall through to the generic "other
	// top-level *_statement" destination rule.
	root := fake.New("insert_statement", "INSERT INTO ds.tbl VALUES (1)").
		WithTableName(fake.New("identifier", "ds.tbl"))

	result := Analyze(root)
	want := []Destination{{Identifier: "ds.tbl", Kind: resource.KindTable}}
	if !reflect.DeepEqual(result.Destinations, want) {
		t.Errorf("Destinations = %v, want %v", result.Destinations, want)
	}
}

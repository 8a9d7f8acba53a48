package aggregates

import (
	"testing"

	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
)

func TestCollectorGathersEveryViolationBeforeFlushing(t *testing.T) {
	col := NewCollector()
	if col.HasViolations() {
		t.Fatalf("fresh collector should be empty")
	}
	if err := col.Err("op"); err != nil {
		t.Fatalf("empty collector flush: %v", err)
	}

	col.Add("name", domainagg.ViolationRequired, "name is required", nil)
	col.Add("distanceKm", domainagg.ViolationRequired, "distanceKm is required", nil)
	col.Addf("tolls[2].nodeId", domainagg.ViolationDuplicateNode, "abc", "node already used at toll position %d", 1)

	err := col.Err("Transit.Pathway.Test")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q", domainagg.CodeOf(err))
	}
	vs := domainagg.ViolationsOf(err)
	if len(vs) != 3 {
		t.Fatalf("violations count: want=3 got=%d", len(vs))
	}
	if !domainagg.HasViolation(err, domainagg.ViolationDuplicateNode) {
		t.Fatalf("expected duplicate_node violation, got %+v", vs)
	}
}

func TestCollectorMergePrefixesFieldPaths(t *testing.T) {
	sub := NewCollector()
	sub.Add("distanceKm", domainagg.ViolationRequired, "distanceKm is required", nil)
	sub.Add("", domainagg.ViolationMultipleDefaults, "too many defaults", nil)

	col := NewCollector()
	col.Merge("options[1]", sub)

	vs := col.Violations()
	if len(vs) != 2 {
		t.Fatalf("violations count: want=2 got=%d", len(vs))
	}
	if vs[0].Field != "options[1].distanceKm" {
		t.Fatalf("prefixed field: got=%q", vs[0].Field)
	}
	if vs[1].Field != "options[1]" {
		t.Fatalf("empty field should take the prefix, got=%q", vs[1].Field)
	}
}

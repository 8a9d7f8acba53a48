package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/tollgrid/pathways-backend/internal/data/aggregates"
	aggregatetest "github.com/tollgrid/pathways-backend/internal/data/aggregates/testutil"
	repotest "github.com/tollgrid/pathways-backend/internal/data/repos/testutil"
	transitrepos "github.com/tollgrid/pathways-backend/internal/data/repos/transit"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
)

// newHookedAggregate wires the aggregate over an injected runner and a hooks
// recorder. No database sits behind it; the exercised paths fail before any
// repo call.
func newHookedAggregate(t *testing.T, runner *aggregatetest.InjectedTxRunner, rec *aggregatetest.HooksRecorder) domainagg.PathwayAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return aggregates.NewPathwayAggregate(aggregates.PathwayAggregateDeps{
		Base: aggregates.BaseDeps{
			Runner: runner,
			Hooks:  rec,
		},
		Pathways: transitrepos.NewPathwayRepo(nil, log),
		Options:  transitrepos.NewPathwayOptionRepo(nil, log),
		Tolls:    transitrepos.NewPathwayOptionTollRepo(nil, log),
		Nodes:    transitrepos.NewTransitNodeRepo(nil, log),
	})
}

func TestAggregateWriteRollsBackAndObservesValidationFailure(t *testing.T) {
	runner := &aggregatetest.InjectedTxRunner{}
	rec := &aggregatetest.HooksRecorder{}
	agg := newHookedAggregate(t, runner, rec)

	_, err := agg.UpdatePathway(context.Background(), domainagg.UpdatePathwayInput{})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if runner.BeginCalls != 1 || runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("tx lifecycle: begin=%d rollback=%d commit=%d", runner.BeginCalls, runner.RollbackCalls, runner.CommitCalls)
	}
	if len(rec.Operations) != 1 {
		t.Fatalf("operations observed: %+v", rec.Operations)
	}
	if rec.Operations[0].Name != "Transit.Pathway.Update" || rec.Operations[0].Status != "validation" {
		t.Fatalf("observed operation: %+v", rec.Operations[0])
	}
}

func TestAggregateWriteCountsConflicts(t *testing.T) {
	runner := &aggregatetest.InjectedTxRunner{
		FailBeforeBody: aggregates.ConflictError("pathway changed"),
	}
	rec := &aggregatetest.HooksRecorder{}
	agg := newHookedAggregate(t, runner, rec)

	_, err := agg.CreatePathway(context.Background(), domainagg.CreatePathwayInput{
		OriginNodeID:      uuid.New(),
		DestinationNodeID: uuid.New(),
		Name:              "Nairobi - Mombasa",
		Code:              "PW-NBO-MSA",
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollbacks: want=1 got=%d", runner.RollbackCalls)
	}
	if len(rec.Conflicts) != 1 || rec.Conflicts[0] != "Transit.Pathway.Create" {
		t.Fatalf("conflicts recorded: %+v", rec.Conflicts)
	}
	if len(rec.Operations) != 1 || rec.Operations[0].Status != "conflict" {
		t.Fatalf("observed operation: %+v", rec.Operations)
	}
}

package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	repotest "github.com/tollgrid/pathways-backend/internal/data/repos/testutil"
	transitrepos "github.com/tollgrid/pathways-backend/internal/data/repos/transit"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

func newTestAggregate(t *testing.T, tx *gorm.DB) domainagg.PathwayAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return NewPathwayAggregate(PathwayAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Pathways: transitrepos.NewPathwayRepo(tx, log),
		Options:  transitrepos.NewPathwayOptionRepo(tx, log),
		Tolls:    transitrepos.NewPathwayOptionTollRepo(tx, log),
		Nodes:    transitrepos.NewTransitNodeRepo(tx, log),
	})
}

func TestPathwayAggregateCreatePathway(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")

	snap, err := agg.CreatePathway(ctx, domainagg.CreatePathwayInput{
		OriginNodeID:      origin.ID,
		DestinationNodeID: dest.ID,
		Name:              "Nairobi - Mombasa",
		Code:              "PW-NBO-MSA",
		IsSellable:        true,
	})
	if err != nil {
		t.Fatalf("CreatePathway: %v", err)
	}
	if snap.OriginCityID != origin.CityID || snap.DestinationCityID != dest.CityID {
		t.Fatalf("city ids must derive from the nodes: %+v", snap)
	}
	if snap.Active {
		t.Fatalf("new pathways must start inactive")
	}
	if snap.Version != 0 {
		t.Fatalf("new pathway version: want=0 got=%d", snap.Version)
	}
}

func TestPathwayAggregateCreatePathwayCollectsEveryViolation(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	node := uuid.New()
	_, err := agg.CreatePathway(ctx, domainagg.CreatePathwayInput{
		OriginNodeID:      node,
		DestinationNodeID: node,
		IsSellable:        true,
		IsEmptyTrip:       true,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	vs := domainagg.ViolationsOf(err)
	if len(vs) != 4 {
		t.Fatalf("want name, code, same-endpoint and empty-trip violations together, got %+v", vs)
	}
	if !domainagg.HasViolation(err, domainagg.ViolationOriginEqualsDestination) {
		t.Fatalf("missing origin_equals_destination: %v", err)
	}
	if !domainagg.HasViolation(err, domainagg.ViolationEmptyTripSellable) {
		t.Fatalf("missing empty_trip_sellable_conflict: %v", err)
	}
}

func TestPathwayAggregateAddFirstOptionBecomesDefault(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	city := repotest.SeedCity(t, ctx, tx, "NBO")
	origin := repotest.SeedNode(t, ctx, tx, city.ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)

	opt, err := agg.AddOption(ctx, domainagg.AddOptionInput{
		PathwayID: pw.ID,
		Option: domainagg.OptionPayload{
			Name:           strPtr("Via Expressway"),
			DistanceKm:     f64Ptr(150),
			TypicalTimeMin: intPtr(120),
		},
	})
	if err != nil {
		t.Fatalf("AddOption: %v", err)
	}
	if !opt.IsDefault {
		t.Fatalf("first option must become default")
	}
	if opt.AvgSpeedKmh != 75 {
		t.Fatalf("derived speed: want=75 got=%d", opt.AvgSpeedKmh)
	}
	if opt.Sequence != 1 {
		t.Fatalf("first option sequence: want=1 got=%d", opt.Sequence)
	}

	// Adding an option never activates the pathway by itself.
	reloaded, err := transitrepos.NewPathwayRepo(tx, repotest.Logger(t)).GetByID(dbctx.Context{Ctx: ctx}, pw.ID)
	if err != nil {
		t.Fatalf("reload pathway: %v", err)
	}
	if reloaded.Active {
		t.Fatalf("pathway must stay inactive after first option")
	}

	second, err := agg.AddOption(ctx, domainagg.AddOptionInput{
		PathwayID: pw.ID,
		Option: domainagg.OptionPayload{
			Name:           strPtr("Via Old Road"),
			DistanceKm:     f64Ptr(180),
			TypicalTimeMin: intPtr(200),
		},
	})
	if err != nil {
		t.Fatalf("AddOption second: %v", err)
	}
	if second.IsDefault {
		t.Fatalf("later options must not take the default implicitly")
	}
	if second.Sequence != 2 {
		t.Fatalf("second option sequence: want=2 got=%d", second.Sequence)
	}
}

func TestPathwayAggregateRemoveOptionProtections(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	def := repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)
	alt := repotest.SeedOption(t, ctx, tx, pw.ID, "alternate", false)

	_, err := agg.RemoveOption(ctx, domainagg.RemoveOptionInput{PathwayID: pw.ID, OptionID: def.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("removing the default must be an invariant violation, got %v", err)
	}

	snap, err := agg.RemoveOption(ctx, domainagg.RemoveOptionInput{PathwayID: pw.ID, OptionID: alt.ID})
	if err != nil {
		t.Fatalf("RemoveOption alternate: %v", err)
	}
	if len(snap.Options) != 1 || snap.Options[0].ID != def.ID {
		t.Fatalf("snapshot after removal: %+v", snap.Options)
	}

	// Sole option of an active pathway stays put even if not checked as default first.
	if err := tx.WithContext(ctx).Model(pw).Update("active", true).Error; err != nil {
		t.Fatalf("activate pathway: %v", err)
	}
	_, err = agg.RemoveOption(ctx, domainagg.RemoveOptionInput{PathwayID: pw.ID, OptionID: def.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("removing the last option of an active pathway must fail, got %v", err)
	}
}

func TestPathwayAggregateSetDefaultOption(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	def := repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)
	alt := repotest.SeedOption(t, ctx, tx, pw.ID, "alternate", false)

	snap, err := agg.SetDefaultOption(ctx, domainagg.SetDefaultOptionInput{PathwayID: pw.ID, OptionID: alt.ID})
	if err != nil {
		t.Fatalf("SetDefaultOption: %v", err)
	}
	defaults := 0
	for _, o := range snap.Options {
		if o.IsDefault {
			defaults++
			if o.ID != alt.ID {
				t.Fatalf("default moved to wrong option: %+v", o)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("exactly one default expected, got %d", defaults)
	}

	// No-op when the option already holds the flag.
	again, err := agg.SetDefaultOption(ctx, domainagg.SetDefaultOptionInput{PathwayID: pw.ID, OptionID: alt.ID})
	if err != nil {
		t.Fatalf("SetDefaultOption no-op: %v", err)
	}
	if len(again.Options) != 2 {
		t.Fatalf("no-op snapshot: %+v", again.Options)
	}
	_ = def
}

func TestPathwayAggregateActivateRequiresOptions(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)

	active := true
	_, err := agg.UpdatePathway(ctx, domainagg.UpdatePathwayInput{PathwayID: pw.ID, Active: &active})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("activation without options must fail, got %v", err)
	}

	repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)
	snap, err := agg.UpdatePathway(ctx, domainagg.UpdatePathwayInput{PathwayID: pw.ID, Active: &active})
	if err != nil {
		t.Fatalf("UpdatePathway activate: %v", err)
	}
	if !snap.Active {
		t.Fatalf("pathway should be active")
	}
}

func TestPathwayAggregateSyncOptionTollsDestructiveReplace(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	city := repotest.SeedCity(t, ctx, tx, "NBO")
	origin := repotest.SeedNode(t, ctx, tx, city.ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	opt := repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)

	t1 := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-1")
	t2 := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-2")
	t3 := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-3")

	snap, err := agg.SyncOptionTolls(ctx, domainagg.SyncOptionTollsInput{
		PathwayID: pw.ID,
		OptionID:  opt.ID,
		Tolls: []domainagg.TollInput{
			{NodeID: t1.ID, DistanceKm: f64Ptr(60)},
			{NodeID: t2.ID, DistanceKm: f64Ptr(100)},
			{NodeID: t3.ID},
		},
	})
	if err != nil {
		t.Fatalf("SyncOptionTolls: %v", err)
	}
	if len(snap.Tolls) != 3 {
		t.Fatalf("tolls count: want=3 got=%d", len(snap.Tolls))
	}
	for i, toll := range snap.Tolls {
		if toll.Sequence != i+1 {
			t.Fatalf("toll sequence at %d: want=%d got=%d", i, i+1, toll.Sequence)
		}
	}
	// Seeded option runs 75 km/h: 60 km ~ 48 min.
	if snap.Tolls[0].PassTimeMin == nil || *snap.Tolls[0].PassTimeMin != 48 {
		t.Fatalf("derived pass time: want=48 got=%v", snap.Tolls[0].PassTimeMin)
	}
	if snap.Tolls[2].PassTimeMin != nil {
		t.Fatalf("no distance means no pass time estimate, got %v", snap.Tolls[2].PassTimeMin)
	}

	// Re-sync with two stops replaces everything, including sequences.
	snap, err = agg.SyncOptionTolls(ctx, domainagg.SyncOptionTollsInput{
		PathwayID: pw.ID,
		OptionID:  opt.ID,
		Tolls: []domainagg.TollInput{
			{NodeID: t3.ID},
			{NodeID: t1.ID},
		},
	})
	if err != nil {
		t.Fatalf("SyncOptionTolls resync: %v", err)
	}
	if len(snap.Tolls) != 2 {
		t.Fatalf("resync tolls count: want=2 got=%d", len(snap.Tolls))
	}
	if snap.Tolls[0].NodeID != t3.ID || snap.Tolls[0].Sequence != 1 {
		t.Fatalf("resync first toll: %+v", snap.Tolls[0])
	}

	// Empty payload clears the toll list.
	snap, err = agg.SyncOptionTolls(ctx, domainagg.SyncOptionTollsInput{PathwayID: pw.ID, OptionID: opt.ID})
	if err != nil {
		t.Fatalf("SyncOptionTolls clear: %v", err)
	}
	if len(snap.Tolls) != 0 {
		t.Fatalf("tolls should be cleared, got %d", len(snap.Tolls))
	}
}

func TestPathwayAggregateSyncOptionTollsRollsBackOnInvalidEntry(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	city := repotest.SeedCity(t, ctx, tx, "NBO")
	origin := repotest.SeedNode(t, ctx, tx, city.ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	opt := repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)

	t1 := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-1")
	repotest.SeedToll(t, ctx, tx, opt.ID, t1.ID, 1)

	t2 := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-2")
	_, err := agg.SyncOptionTolls(ctx, domainagg.SyncOptionTollsInput{
		PathwayID: pw.ID,
		OptionID:  opt.ID,
		Tolls: []domainagg.TollInput{
			{NodeID: t2.ID},
			{NodeID: uuid.New()},
			{NodeID: t2.ID},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !domainagg.HasViolation(err, domainagg.ViolationNodeNotFound) || !domainagg.HasViolation(err, domainagg.ViolationDuplicateNode) {
		t.Fatalf("expected both violations collected, got %v", err)
	}

	// The original toll list must survive the failed sync untouched.
	log := repotest.Logger(t)
	tolls, err := transitrepos.NewPathwayOptionTollRepo(tx, log).ListByOptionID(dbctx.Context{Ctx: ctx}, opt.ID)
	if err != nil {
		t.Fatalf("ListByOptionID: %v", err)
	}
	if len(tolls) != 1 || tolls[0].NodeID != t1.ID {
		t.Fatalf("tolls should be unchanged after rollback: %+v", tolls)
	}
}

func TestPathwayAggregateBulkSyncOptions(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	city := repotest.SeedCity(t, ctx, tx, "NBO")
	origin := repotest.SeedNode(t, ctx, tx, city.ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	keep := repotest.SeedOption(t, ctx, tx, pw.ID, "keep", true)
	repotest.SeedOption(t, ctx, tx, pw.ID, "drop", false)

	booth := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-1")
	tolls := []domainagg.TollInput{{NodeID: booth.ID, DistanceKm: f64Ptr(60)}}

	res, err := agg.BulkSyncOptions(ctx, domainagg.BulkSyncOptionsInput{
		PathwayID: pw.ID,
		Options: []domainagg.BulkOptionInput{
			{ID: &keep.ID, Option: domainagg.OptionPayload{Description: strPtr("kept")}},
			{Option: domainagg.OptionPayload{
				Name:           strPtr("fresh"),
				DistanceKm:     f64Ptr(90),
				TypicalTimeMin: intPtr(60),
			}, Tolls: &tolls},
		},
	})
	if err != nil {
		t.Fatalf("BulkSyncOptions: %v", err)
	}
	if res.Created != 1 || res.Updated != 1 || res.Deleted != 1 {
		t.Fatalf("counts: created=%d updated=%d deleted=%d", res.Created, res.Updated, res.Deleted)
	}
	if res.DefaultOptionID != keep.ID {
		t.Fatalf("surviving default must be preserved: want=%s got=%s", keep.ID, res.DefaultOptionID)
	}
	if len(res.Options) != 2 {
		t.Fatalf("refreshed options: %+v", res.Options)
	}
	for _, o := range res.Options {
		if o.Name == "fresh" {
			if o.AvgSpeedKmh != 90 {
				t.Fatalf("created option derived speed: want=90 got=%d", o.AvgSpeedKmh)
			}
			if len(o.Tolls) != 1 || o.Tolls[0].Sequence != 1 {
				t.Fatalf("created option tolls: %+v", o.Tolls)
			}
		}
	}

	// Sync bumps the pathway version for optimistic concurrency.
	reloaded, err := transitrepos.NewPathwayRepo(tx, repotest.Logger(t)).GetByID(dbctx.Context{Ctx: ctx}, pw.ID)
	if err != nil {
		t.Fatalf("reload pathway: %v", err)
	}
	if reloaded.Version != 1 {
		t.Fatalf("version after sync: want=1 got=%d", reloaded.Version)
	}

	// A writer holding the old version loses.
	stale := 0
	_, err = agg.BulkSyncOptions(ctx, domainagg.BulkSyncOptionsInput{
		PathwayID:       pw.ID,
		ExpectedVersion: &stale,
		Options: []domainagg.BulkOptionInput{
			{ID: &keep.ID, Option: domainagg.OptionPayload{}},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("stale version must conflict, got %v", err)
	}
}

func TestPathwayAggregateBulkSyncRejectsEmptySetOnActivePathway(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	opt := repotest.SeedOption(t, ctx, tx, pw.ID, "only", true)
	if err := tx.WithContext(ctx).Model(pw).Update("active", true).Error; err != nil {
		t.Fatalf("activate pathway: %v", err)
	}

	_, err := agg.BulkSyncOptions(ctx, domainagg.BulkSyncOptionsInput{PathwayID: pw.ID})
	if !domainagg.HasViolation(err, domainagg.ViolationNoOptionsWhileActive) {
		t.Fatalf("expected no_options_while_active, got %v", err)
	}

	// Nothing was deleted by the failed sync.
	log := repotest.Logger(t)
	opts, lerr := transitrepos.NewPathwayOptionRepo(tx, log).ListByPathwayID(dbctx.Context{Ctx: ctx}, pw.ID)
	if lerr != nil {
		t.Fatalf("ListByPathwayID: %v", lerr)
	}
	if len(opts) != 1 || opts[0].ID != opt.ID {
		t.Fatalf("options must be intact after rejected sync: %+v", opts)
	}
}

func TestPathwayAggregateAddOptionPromotesExplicitDefault(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	old := repotest.SeedOption(t, ctx, tx, pw.ID, "old default", true)

	// Explicit default on add must demote the current holder, with the
	// single-default unique index live on the test schema.
	opt, err := agg.AddOption(ctx, domainagg.AddOptionInput{
		PathwayID: pw.ID,
		Option: domainagg.OptionPayload{
			Name:           strPtr("Via Expressway"),
			DistanceKm:     f64Ptr(90),
			TypicalTimeMin: intPtr(60),
			IsDefault:      boolPtr(true),
		},
	})
	if err != nil {
		t.Fatalf("AddOption with explicit default: %v", err)
	}
	if !opt.IsDefault {
		t.Fatalf("added option must hold the default flag")
	}

	log := repotest.Logger(t)
	opts, err := transitrepos.NewPathwayOptionRepo(tx, log).ListByPathwayID(dbctx.Context{Ctx: ctx}, pw.ID)
	if err != nil {
		t.Fatalf("ListByPathwayID: %v", err)
	}
	defaults := 0
	for _, o := range opts {
		if o.IsDefault {
			defaults++
			if o.ID != opt.ID {
				t.Fatalf("default must move to the added option: %+v", o)
			}
		}
		if o.ID == old.ID && o.IsDefault {
			t.Fatalf("previous default was not demoted")
		}
	}
	if defaults != 1 {
		t.Fatalf("exactly one default expected, got %d", defaults)
	}
}

func TestPathwayAggregateAddFirstOptionRefusingDefaultRejected(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)

	// One option with no default would break the collection invariant.
	_, err := agg.AddOption(ctx, domainagg.AddOptionInput{
		PathwayID: pw.ID,
		Option: domainagg.OptionPayload{
			Name:           strPtr("Via Expressway"),
			DistanceKm:     f64Ptr(90),
			TypicalTimeMin: intPtr(60),
			IsDefault:      boolPtr(false),
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !domainagg.HasViolation(err, domainagg.ViolationNoDefaultOption) {
		t.Fatalf("expected no_default_option violation, got %v", err)
	}

	log := repotest.Logger(t)
	n, err := transitrepos.NewPathwayOptionRepo(tx, log).CountByPathwayID(dbctx.Context{Ctx: ctx}, pw.ID)
	if err != nil {
		t.Fatalf("CountByPathwayID: %v", err)
	}
	if n != 0 {
		t.Fatalf("rejected option must not persist, got %d", n)
	}
}

func TestPathwayAggregateUpdateOptionPromotesDefault(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	old := repotest.SeedOption(t, ctx, tx, pw.ID, "old default", true)
	alt := repotest.SeedOption(t, ctx, tx, pw.ID, "alternate", false)

	snap, err := agg.UpdateOption(ctx, domainagg.UpdateOptionInput{
		PathwayID: pw.ID,
		OptionID:  alt.ID,
		Option:    domainagg.OptionPayload{IsDefault: boolPtr(true)},
	})
	if err != nil {
		t.Fatalf("UpdateOption promote: %v", err)
	}
	if !snap.IsDefault {
		t.Fatalf("promoted option must hold the default flag")
	}

	log := repotest.Logger(t)
	opts, err := transitrepos.NewPathwayOptionRepo(tx, log).ListByPathwayID(dbctx.Context{Ctx: ctx}, pw.ID)
	if err != nil {
		t.Fatalf("ListByPathwayID: %v", err)
	}
	defaults := 0
	for _, o := range opts {
		if o.IsDefault {
			defaults++
			if o.ID != alt.ID {
				t.Fatalf("default on wrong option: %+v", o)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("exactly one default expected, got %d", defaults)
	}
	_ = old
}

func TestPathwayAggregateBulkSyncPromotesEntryListedBeforeOldDefault(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	old := repotest.SeedOption(t, ctx, tx, pw.ID, "old default", true)
	next := repotest.SeedOption(t, ctx, tx, pw.ID, "next", false)

	// The promoted entry comes first in the payload; the demotion must
	// still write before it.
	res, err := agg.BulkSyncOptions(ctx, domainagg.BulkSyncOptionsInput{
		PathwayID: pw.ID,
		Options: []domainagg.BulkOptionInput{
			{ID: &next.ID, Option: domainagg.OptionPayload{IsDefault: boolPtr(true)}},
			{ID: &old.ID, Option: domainagg.OptionPayload{}},
		},
	})
	if err != nil {
		t.Fatalf("BulkSyncOptions: %v", err)
	}
	if res.DefaultOptionID != next.ID {
		t.Fatalf("default election: want=%s got=%s", next.ID, res.DefaultOptionID)
	}
	defaults := 0
	for _, o := range res.Options {
		if o.IsDefault {
			defaults++
			if o.ID != next.ID {
				t.Fatalf("default on wrong option: %+v", o)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("exactly one default expected, got %d", defaults)
	}
}

func TestPathwayAggregateBulkSyncReportsOptionAndTollViolationsTogether(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	keep := repotest.SeedOption(t, ctx, tx, pw.ID, "keep", true)

	badTolls := []domainagg.TollInput{{NodeID: uuid.New()}}
	_, err := agg.BulkSyncOptions(ctx, domainagg.BulkSyncOptionsInput{
		PathwayID: pw.ID,
		Options: []domainagg.BulkOptionInput{
			{ID: &keep.ID, Option: domainagg.OptionPayload{Name: strPtr("")}},
			{Option: domainagg.OptionPayload{
				Name:           strPtr("fresh"),
				DistanceKm:     f64Ptr(90),
				TypicalTimeMin: intPtr(60),
			}, Tolls: &badTolls},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !domainagg.HasViolation(err, domainagg.ViolationRequired) {
		t.Fatalf("option violation must be reported, got %v", err)
	}
	if !domainagg.HasViolation(err, domainagg.ViolationNodeNotFound) {
		t.Fatalf("toll violation must be reported alongside, got %v", err)
	}

	// Nothing persisted from the rejected payload.
	log := repotest.Logger(t)
	opts, lerr := transitrepos.NewPathwayOptionRepo(tx, log).ListByPathwayID(dbctx.Context{Ctx: ctx}, pw.ID)
	if lerr != nil {
		t.Fatalf("ListByPathwayID: %v", lerr)
	}
	if len(opts) != 1 || opts[0].Name != "keep" {
		t.Fatalf("options must be intact after rejected sync: %+v", opts)
	}
}

func TestPathwayAggregateOptionOwnership(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newTestAggregate(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	other := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "KSM").ID, "KSM-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	pw2 := repotest.SeedPathway(t, ctx, tx, origin, other)
	foreign := repotest.SeedOption(t, ctx, tx, pw2.ID, "foreign", true)

	_, err := agg.UpdateOption(ctx, domainagg.UpdateOptionInput{
		PathwayID: pw.ID,
		OptionID:  foreign.ID,
		Option:    domainagg.OptionPayload{Description: strPtr("hijack")},
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("cross-pathway option writes must fail, got %v", err)
	}

	_, err = agg.UpdateOption(ctx, domainagg.UpdateOptionInput{
		PathwayID: pw.ID,
		OptionID:  uuid.New(),
		Option:    domainagg.OptionPayload{},
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing option must be not_found, got %v", err)
	}
}

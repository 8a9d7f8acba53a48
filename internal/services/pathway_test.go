package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	dataagg "github.com/tollgrid/pathways-backend/internal/data/aggregates"
	aggregatetest "github.com/tollgrid/pathways-backend/internal/data/aggregates/testutil"
	repotest "github.com/tollgrid/pathways-backend/internal/data/repos/testutil"
	transitrepos "github.com/tollgrid/pathways-backend/internal/data/repos/transit"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, tx *gorm.DB) PathwayService {
	t.Helper()
	log := repotest.Logger(t)
	pathwayRepo := transitrepos.NewPathwayRepo(tx, log)
	optionRepo := transitrepos.NewPathwayOptionRepo(tx, log)
	tollRepo := transitrepos.NewPathwayOptionTollRepo(tx, log)
	agg := dataagg.NewPathwayAggregate(dataagg.PathwayAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:       tx,
			Runner:   &aggregatetest.TxBoundRunner{Tx: tx},
			CASGuard: dataagg.NewCASGuard(tx),
		},
		Pathways: pathwayRepo,
		Options:  optionRepo,
		Tolls:    tollRepo,
		Nodes:    transitrepos.NewTransitNodeRepo(tx, log),
	})
	return NewPathwayService(tx, log, agg, pathwayRepo, optionRepo, tollRepo)
}

func TestPathwayServiceGetPathway(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	svc := newTestService(t, tx)
	ctx := context.Background()

	city := repotest.SeedCity(t, ctx, tx, "NBO")
	origin := repotest.SeedNode(t, ctx, tx, city.ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	opt := repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)
	booth := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-1")
	repotest.SeedToll(t, ctx, tx, opt.ID, booth.ID, 1)

	detail, err := svc.GetPathway(ctx, pw.ID)
	if err != nil {
		t.Fatalf("GetPathway: %v", err)
	}
	if detail.Pathway.ID != pw.ID {
		t.Fatalf("wrong pathway: %+v", detail.Pathway)
	}
	if len(detail.Options) != 1 {
		t.Fatalf("options: %+v", detail.Options)
	}
	if detail.Options[0].TollCount != 1 {
		t.Fatalf("toll count: want=1 got=%d", detail.Options[0].TollCount)
	}

	_, err = svc.GetPathway(ctx, uuid.New())
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing pathway must be not_found, got %v", err)
	}
}

func TestPathwayServiceWritesDelegateToAggregate(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	svc := newTestService(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")

	snap, err := svc.CreatePathway(ctx, domainagg.CreatePathwayInput{
		OriginNodeID:      origin.ID,
		DestinationNodeID: dest.ID,
		Name:              "Nairobi - Mombasa",
		Code:              "PW-NBO-MSA",
	})
	if err != nil {
		t.Fatalf("CreatePathway: %v", err)
	}
	if snap.Active {
		t.Fatalf("new pathway must start inactive")
	}

	opt, err := svc.AddOption(ctx, domainagg.AddOptionInput{
		PathwayID: snap.ID,
		Option: domainagg.OptionPayload{
			Name:           strPtr("Via Expressway"),
			DistanceKm:     f64Ptr(150),
			TypicalTimeMin: intPtr(120),
		},
	})
	if err != nil {
		t.Fatalf("AddOption: %v", err)
	}
	if !opt.IsDefault || opt.AvgSpeedKmh != 75 {
		t.Fatalf("first option: %+v", opt)
	}

	detail, err := svc.GetPathway(ctx, snap.ID)
	if err != nil {
		t.Fatalf("GetPathway: %v", err)
	}
	if len(detail.Options) != 1 {
		t.Fatalf("options after add: %+v", detail.Options)
	}
}

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }

func TestPathwayServiceListPathwaysActiveOnly(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	svc := newTestService(t, tx)
	ctx := context.Background()

	origin := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "NBO").ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	inactive := repotest.SeedPathway(t, ctx, tx, origin, dest)
	active := repotest.SeedPathway(t, ctx, tx, dest, origin)
	if err := tx.WithContext(ctx).Model(active).Update("active", true).Error; err != nil {
		t.Fatalf("activate pathway: %v", err)
	}

	all, err := svc.ListPathways(ctx, ListPathwaysInput{})
	if err != nil {
		t.Fatalf("ListPathways: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all pathways: want=2 got=%d", len(all))
	}

	rows, err := svc.ListPathways(ctx, ListPathwaysInput{
		OriginCityID:      origin.CityID,
		DestinationCityID: dest.CityID,
	})
	if err != nil {
		t.Fatalf("ListPathways by pair: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != inactive.ID {
		t.Fatalf("pair filter: %+v", rows)
	}

	rows, err = svc.ListPathways(ctx, ListPathwaysInput{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListPathways active only: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != active.ID {
		t.Fatalf("active filter: %+v", rows)
	}
}

func TestPathwayServiceGetOptionTollsOwnership(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	svc := newTestService(t, tx)
	ctx := context.Background()

	city := repotest.SeedCity(t, ctx, tx, "NBO")
	origin := repotest.SeedNode(t, ctx, tx, city.ID, "NBO-T1")
	dest := repotest.SeedNode(t, ctx, tx, repotest.SeedCity(t, ctx, tx, "MSA").ID, "MSA-T1")
	pw := repotest.SeedPathway(t, ctx, tx, origin, dest)
	other := repotest.SeedPathway(t, ctx, tx, dest, origin)
	opt := repotest.SeedOption(t, ctx, tx, pw.ID, "default", true)
	booth := repotest.SeedTollbooth(t, ctx, tx, city.ID, "TB-1")
	repotest.SeedToll(t, ctx, tx, opt.ID, booth.ID, 1)

	tolls, err := svc.GetOptionTolls(ctx, pw.ID, opt.ID)
	if err != nil {
		t.Fatalf("GetOptionTolls: %v", err)
	}
	if len(tolls) != 1 || tolls[0].NodeID != booth.ID {
		t.Fatalf("tolls: %+v", tolls)
	}

	// Same option through the wrong pathway id reads as missing.
	_, err = svc.GetOptionTolls(ctx, other.ID, opt.ID)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("cross-pathway read must be not_found, got %v", err)
	}
}

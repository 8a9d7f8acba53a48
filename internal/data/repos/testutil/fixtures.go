package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedCity(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.City {
	tb.Helper()
	c := &types.City{
		ID:   uuid.New(),
		Name: "City " + code,
		Code: code,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed city: %v", err)
	}
	return c
}

func SeedNode(tb testing.TB, ctx context.Context, tx *gorm.DB, cityID uuid.UUID, code string) *types.TransitNode {
	tb.Helper()
	n := &types.TransitNode{
		ID:     uuid.New(),
		CityID: cityID,
		Name:   "Node " + code,
		Code:   code,
		Kind:   types.NodeKindTerminal,
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed node: %v", err)
	}
	return n
}

func SeedTollbooth(tb testing.TB, ctx context.Context, tx *gorm.DB, cityID uuid.UUID, code string) *types.TransitNode {
	tb.Helper()
	n := &types.TransitNode{
		ID:     uuid.New(),
		CityID: cityID,
		Name:   "Tollbooth " + code,
		Code:   code,
		Kind:   types.NodeKindTollbooth,
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed tollbooth: %v", err)
	}
	return n
}

func SeedPathway(tb testing.TB, ctx context.Context, tx *gorm.DB, origin, destination *types.TransitNode) *types.Pathway {
	tb.Helper()
	p := &types.Pathway{
		ID:                uuid.New(),
		OriginNodeID:      origin.ID,
		DestinationNodeID: destination.ID,
		OriginCityID:      origin.CityID,
		DestinationCityID: destination.CityID,
		Name:              fmt.Sprintf("%s-%s", origin.Code, destination.Code),
		Code:              fmt.Sprintf("PW-%s-%s", origin.Code, destination.Code),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pathway: %v", err)
	}
	return p
}

func SeedOption(tb testing.TB, ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID, name string, isDefault bool) *types.PathwayOption {
	tb.Helper()
	o := &types.PathwayOption{
		ID:             uuid.New(),
		PathwayID:      pathwayID,
		Name:           name,
		DistanceKm:     150,
		TypicalTimeMin: 120,
		AvgSpeedKmh:    75,
		IsDefault:      isDefault,
		Active:         true,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed option: %v", err)
	}
	return o
}

func SeedToll(tb testing.TB, ctx context.Context, tx *gorm.DB, optionID, nodeID uuid.UUID, seq int) *types.PathwayOptionToll {
	tb.Helper()
	tl := &types.PathwayOptionToll{
		ID:              uuid.New(),
		PathwayOptionID: optionID,
		NodeID:          nodeID,
		Sequence:        seq,
	}
	if err := tx.WithContext(ctx).Create(tl).Error; err != nil {
		tb.Fatalf("seed toll: %v", err)
	}
	return tl
}

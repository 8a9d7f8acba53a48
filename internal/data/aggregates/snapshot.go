package aggregates

import (
	"encoding/json"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
)

// Snapshots are detached values: pointer fields are copied so later row
// mutations never leak into a snapshot a caller already holds.

func pathwaySnapshotFrom(row *types.Pathway, opts []domainagg.OptionSnapshot) domainagg.PathwaySnapshot {
	if row == nil {
		return domainagg.PathwaySnapshot{}
	}
	var meta map[string]any
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &meta)
	}
	return domainagg.PathwaySnapshot{
		ID:                row.ID,
		OriginNodeID:      row.OriginNodeID,
		DestinationNodeID: row.DestinationNodeID,
		OriginCityID:      row.OriginCityID,
		DestinationCityID: row.DestinationCityID,
		Name:              row.Name,
		Code:              row.Code,
		Description:       row.Description,
		IsSellable:        row.IsSellable,
		IsEmptyTrip:       row.IsEmptyTrip,
		Active:            row.Active,
		Version:           row.Version,
		Metadata:          meta,
		Options:           opts,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func optionSnapshotFrom(row *types.PathwayOption, tolls []*types.PathwayOptionToll) domainagg.OptionSnapshot {
	if row == nil {
		return domainagg.OptionSnapshot{}
	}
	out := domainagg.OptionSnapshot{
		ID:             row.ID,
		PathwayID:      row.PathwayID,
		Name:           row.Name,
		Description:    row.Description,
		DistanceKm:     row.DistanceKm,
		TypicalTimeMin: row.TypicalTimeMin,
		AvgSpeedKmh:    row.AvgSpeedKmh,
		IsDefault:      row.IsDefault,
		IsPassThrough:  row.IsPassThrough,
		Sequence:       row.Sequence,
		Active:         row.Active,
	}
	if row.PassThroughTimeMin != nil {
		v := *row.PassThroughTimeMin
		out.PassThroughTimeMin = &v
	}
	if len(tolls) > 0 {
		out.Tolls = make([]domainagg.TollSnapshot, 0, len(tolls))
		for _, t := range tolls {
			out.Tolls = append(out.Tolls, tollSnapshotFrom(t))
		}
	}
	return out
}

func tollSnapshotFrom(row *types.PathwayOptionToll) domainagg.TollSnapshot {
	if row == nil {
		return domainagg.TollSnapshot{}
	}
	out := domainagg.TollSnapshot{
		ID:              row.ID,
		PathwayOptionID: row.PathwayOptionID,
		NodeID:          row.NodeID,
		Sequence:        row.Sequence,
	}
	if row.DistanceKm != nil {
		v := *row.DistanceKm
		out.DistanceKm = &v
	}
	if row.PassTimeMin != nil {
		v := *row.PassTimeMin
		out.PassTimeMin = &v
	}
	return out
}

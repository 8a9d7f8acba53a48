package aggregates

import (
	"strings"

	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	types "github.com/tollgrid/pathways-backend/internal/domain"
)

// applyOptionPayload applies a caller payload onto an option row and collects
// every field violation it finds. On create, missing metrics are required and
// an omitted active flag defaults to true. On update, nil payload fields
// leave the stored value untouched.
//
// Average speed is derived from distance and typical time whenever either
// changes without an explicit speed in the same payload.
func applyOptionPayload(row *types.PathwayOption, p domainagg.OptionPayload, create bool, col *Collector) {
	if p.Name != nil {
		row.Name = strings.TrimSpace(*p.Name)
	}
	if strings.TrimSpace(row.Name) == "" {
		col.Add("name", domainagg.ViolationRequired, "option name is required", nil)
	}
	if p.Description != nil {
		row.Description = strings.TrimSpace(*p.Description)
	}

	if p.DistanceKm != nil {
		if *p.DistanceKm <= 0 {
			col.Add("distanceKm", domainagg.ViolationRequired, "distanceKm must be positive", *p.DistanceKm)
		}
		row.DistanceKm = *p.DistanceKm
	} else if create {
		col.Add("distanceKm", domainagg.ViolationRequired, "distanceKm is required", nil)
	}

	if p.TypicalTimeMin != nil {
		if *p.TypicalTimeMin <= 0 {
			col.Add("typicalTimeMin", domainagg.ViolationRequired, "typicalTimeMin must be positive", *p.TypicalTimeMin)
		}
		row.TypicalTimeMin = *p.TypicalTimeMin
	} else if create {
		col.Add("typicalTimeMin", domainagg.ViolationRequired, "typicalTimeMin is required", nil)
	}

	switch {
	case p.AvgSpeedKmh != nil:
		if *p.AvgSpeedKmh <= 0 {
			col.Add("avgSpeedKmh", domainagg.ViolationRequired, "avgSpeedKmh must be positive", *p.AvgSpeedKmh)
		}
		row.AvgSpeedKmh = *p.AvgSpeedKmh
	case create, p.DistanceKm != nil, p.TypicalTimeMin != nil:
		row.AvgSpeedKmh = deriveAvgSpeedKmh(row.DistanceKm, row.TypicalTimeMin)
	}

	if p.IsPassThrough != nil {
		row.IsPassThrough = *p.IsPassThrough
	}
	if p.PassThroughTimeMin != nil {
		v := *p.PassThroughTimeMin
		row.PassThroughTimeMin = &v
	}
	if row.IsPassThrough {
		if row.PassThroughTimeMin == nil || *row.PassThroughTimeMin <= 0 {
			col.Add("passThroughTimeMin", domainagg.ViolationPassThroughTimeRequired, "pass-through options require a positive passThroughTimeMin", nil)
		}
	} else {
		row.PassThroughTimeMin = nil
	}

	if p.Active != nil {
		row.Active = *p.Active
	}
	if p.IsDefault != nil {
		row.IsDefault = *p.IsDefault
	}
}

func maxOptionSequence(opts []*types.PathwayOption) int {
	max := 0
	for _, o := range opts {
		if o != nil && o.Sequence > max {
			max = o.Sequence
		}
	}
	return max
}

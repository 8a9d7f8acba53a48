package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
)

// buildTollRows validates a toll payload against the known node set and
// produces the full replacement row list for the option. Sequences are
// 1-based and contiguous in input order; any Sequence value in the payload is
// ignored. PassTimeMin falls back to an estimate from the option's average
// speed when the payload omits it.
//
// Duplicate nodes and consecutive duplicates are distinct violations: a
// consecutive repeat raises both.
func buildTollRows(option *types.PathwayOption, in []domainagg.TollInput, known map[uuid.UUID]bool, col *Collector) []*types.PathwayOptionToll {
	rows := make([]*types.PathwayOptionToll, 0, len(in))
	firstSeen := map[uuid.UUID]int{}
	for i, t := range in {
		field := fmt.Sprintf("tolls[%d].nodeId", i)
		if t.NodeID == uuid.Nil {
			col.Add(field, domainagg.ViolationRequired, "toll nodeId is required", nil)
			continue
		}
		if !known[t.NodeID] {
			col.Add(field, domainagg.ViolationNodeNotFound, "toll node does not exist", t.NodeID.String())
		}
		if prev, ok := firstSeen[t.NodeID]; ok {
			col.Addf(field, domainagg.ViolationDuplicateNode, t.NodeID.String(),
				"node already used at toll position %d", prev+1)
		} else {
			firstSeen[t.NodeID] = i
		}
		if i > 0 && in[i-1].NodeID == t.NodeID {
			col.Add(field, domainagg.ViolationConsecutiveDuplicateNode, "same node at consecutive toll stops", t.NodeID.String())
		}

		var dist *float64
		if t.DistanceKm != nil {
			if *t.DistanceKm < 0 {
				col.Add(fmt.Sprintf("tolls[%d].distanceKm", i), domainagg.ViolationRequired, "toll distanceKm must not be negative", *t.DistanceKm)
			}
			v := *t.DistanceKm
			dist = &v
		}
		var pass *int
		if t.PassTimeMin != nil {
			v := *t.PassTimeMin
			pass = &v
		} else {
			pass = deriveTollPassTimeMin(dist, option.AvgSpeedKmh)
		}

		rows = append(rows, &types.PathwayOptionToll{
			ID:              uuid.New(),
			PathwayOptionID: option.ID,
			NodeID:          t.NodeID,
			Sequence:        len(rows) + 1,
			DistanceKm:      dist,
			PassTimeMin:     pass,
		})
	}
	return rows
}

// knownTollNodes resolves which of the payload's node ids exist.
func (a *pathwayAggregate) knownTollNodes(dbc dbctx.Context, in []domainagg.TollInput) (map[uuid.UUID]bool, error) {
	ids := make([]uuid.UUID, 0, len(in))
	seen := map[uuid.UUID]bool{}
	for _, t := range in {
		if t.NodeID == uuid.Nil || seen[t.NodeID] {
			continue
		}
		seen[t.NodeID] = true
		ids = append(ids, t.NodeID)
	}
	known := map[uuid.UUID]bool{}
	if len(ids) == 0 {
		return known, nil
	}
	nodes, err := a.deps.Nodes.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n != nil {
			known[n.ID] = true
		}
	}
	return known, nil
}

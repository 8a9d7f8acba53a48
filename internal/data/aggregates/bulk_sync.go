package aggregates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
)

// bulkPlan is the staged outcome of reconciling a payload against the
// current option set. Nothing in it has touched the database yet.
type bulkPlan struct {
	deleteIDs []uuid.UUID
	updates   []*types.PathwayOption
	creates   []*types.PathwayOption

	// rowByEntry maps payload index to the resulting row (update or create).
	rowByEntry map[int]*types.PathwayOption

	defaultID uuid.UUID
}

// planBulkSync categorizes payload entries against the current collection and
// elects the default option. Entries with an id must match a current option;
// current options absent from the payload are marked for deletion. Validation
// failures across every entry land in the returned collector so the caller
// can fold further checks in before flushing one combined error.
//
// Default election order: a single explicit isDefault=true wins; otherwise
// the previous default survives if it still exists; otherwise the first
// resulting option is promoted unless every entry explicitly refused the
// flag, which is a validation failure.
func planBulkSync(op string, pathway *types.Pathway, current []*types.PathwayOption, entries []domainagg.BulkOptionInput) (*bulkPlan, *Collector, error) {
	currentByID := map[uuid.UUID]*types.PathwayOption{}
	for _, o := range current {
		if o != nil {
			currentByID[o.ID] = o
		}
	}

	var unknown []string
	matched := map[uuid.UUID]bool{}
	plan := &bulkPlan{rowByEntry: map[int]*types.PathwayOption{}}
	col := NewCollector()

	nextSeq := maxOptionSequence(current)
	var prevDefault *types.PathwayOption
	for _, o := range current {
		if o != nil && o.IsDefault {
			prevDefault = o
		}
	}

	explicitDefaults := 0
	var explicitDefaultRow *types.PathwayOption
	allExplicitlyNotDefault := len(entries) > 0

	for i, entry := range entries {
		prefix := fmt.Sprintf("options[%d]", i)
		sub := NewCollector()

		var row *types.PathwayOption
		if entry.ID != nil && *entry.ID != uuid.Nil {
			cur, ok := currentByID[*entry.ID]
			if !ok {
				unknown = append(unknown, entry.ID.String())
				continue
			}
			if matched[cur.ID] {
				col.Add(prefix+".id", domainagg.ViolationUnknownOption, "option referenced more than once", cur.ID.String())
				continue
			}
			matched[cur.ID] = true
			row = cur
			applyOptionPayload(row, entry.Option, false, sub)
			plan.updates = append(plan.updates, row)
		} else {
			nextSeq++
			row = &types.PathwayOption{
				ID:        uuid.New(),
				PathwayID: pathway.ID,
				Active:    true,
				Sequence:  nextSeq,
			}
			applyOptionPayload(row, entry.Option, true, sub)
			plan.creates = append(plan.creates, row)
		}
		col.Merge(prefix, sub)
		plan.rowByEntry[i] = row

		if entry.Option.IsDefault != nil && *entry.Option.IsDefault {
			explicitDefaults++
			explicitDefaultRow = row
		}
		if entry.Option.IsDefault == nil || *entry.Option.IsDefault {
			allExplicitlyNotDefault = false
		}
	}

	if len(unknown) > 0 {
		return nil, col, domainagg.NewError(domainagg.CodeNotFound, op,
			fmt.Sprintf("options not found on pathway: %s", strings.Join(unknown, ", ")), nil)
	}
	if explicitDefaults > 1 {
		col.Add("options", domainagg.ViolationMultipleDefaults,
			"at most one option can be marked default", explicitDefaults)
	}

	for _, o := range current {
		if o != nil && !matched[o.ID] {
			plan.deleteIDs = append(plan.deleteIDs, o.ID)
		}
	}

	resulting := make([]*types.PathwayOption, 0, len(entries))
	for i := range entries {
		if row, ok := plan.rowByEntry[i]; ok {
			resulting = append(resulting, row)
		}
	}
	if len(resulting) == 0 && pathway.Active {
		col.Add("options", domainagg.ViolationNoOptionsWhileActive,
			"an active pathway requires at least one option", nil)
	}

	var elected *types.PathwayOption
	switch {
	case explicitDefaults == 1:
		elected = explicitDefaultRow
	case prevDefault != nil && matched[prevDefault.ID]:
		elected = prevDefault
	case len(resulting) > 0:
		if allExplicitlyNotDefault {
			col.Add("options", domainagg.ViolationNoDefaultOption,
				"the resulting option set has no default", nil)
		} else {
			elected = resulting[0]
		}
	}
	if elected != nil {
		for _, row := range resulting {
			row.IsDefault = row == elected
		}
		if !elected.Active {
			col.Add("options", domainagg.ViolationDefaultMustBeActive,
				"the default option must be active", elected.ID.String())
		}
		plan.defaultID = elected.ID
	}

	return plan, col, nil
}

func (a *pathwayAggregate) BulkSyncOptions(ctx context.Context, in domainagg.BulkSyncOptionsInput) (domainagg.BulkSyncResult, error) {
	const op = "Transit.Pathway.BulkSyncOptions"
	var out domainagg.BulkSyncResult
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		if in.ExpectedVersion != nil {
			if err := RequireVersionMatch(e.row.Version, *in.ExpectedVersion); err != nil {
				return err
			}
		}
		current, err := e.options(dbc)
		if err != nil {
			return err
		}

		plan, col, err := planBulkSync(op, e.row, current, in.Options)
		if err != nil {
			return err
		}

		// Toll payloads validate into the same collector so option and toll
		// problems report together, and nothing writes until the whole
		// payload is clean.
		tollRows := map[int][]*types.PathwayOptionToll{}
		for i, entry := range in.Options {
			if entry.Tolls == nil {
				continue
			}
			row, ok := plan.rowByEntry[i]
			if !ok {
				continue
			}
			known, err := a.knownTollNodes(dbc, *entry.Tolls)
			if err != nil {
				return err
			}
			sub := NewCollector()
			tollRows[i] = buildTollRows(row, *entry.Tolls, known, sub)
			col.Merge(fmt.Sprintf("options[%d]", i), sub)
		}
		if err := col.Err(op); err != nil {
			return err
		}

		now := time.Now().UTC()
		if len(plan.deleteIDs) > 0 {
			if err := a.deps.Options.SoftDeleteByIDs(dbc, plan.deleteIDs); err != nil {
				return err
			}
			for _, id := range plan.deleteIDs {
				if err := a.deps.Tolls.DeleteByOptionID(dbc, id); err != nil {
					return err
				}
			}
		}
		// Demotions write before the promoted default so the single-default
		// index holds across the statement sequence.
		sort.SliceStable(plan.updates, func(i, j int) bool {
			return !plan.updates[i].IsDefault && plan.updates[j].IsDefault
		})
		for _, row := range plan.updates {
			row.UpdatedAt = now
			if err := a.deps.Options.Update(dbc, row); err != nil {
				return err
			}
		}
		if _, err := a.deps.Options.Create(dbc, plan.creates); err != nil {
			return err
		}

		tollIdx := make([]int, 0, len(tollRows))
		for i := range tollRows {
			tollIdx = append(tollIdx, i)
		}
		sort.Ints(tollIdx)
		for _, i := range tollIdx {
			optID := plan.rowByEntry[i].ID
			if err := a.deps.Tolls.DeleteByOptionID(dbc, optID); err != nil {
				return err
			}
			if _, err := a.deps.Tolls.CreateMany(dbc, tollRows[i]); err != nil {
				return err
			}
		}

		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, "pathway", e.row.ID, e.row.Version, map[string]any{
			"version":    e.row.Version + 1,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "pathway changed during option sync"); err != nil {
			return err
		}
		e.row.Version++
		e.invalidateOptions()

		refreshed, err := e.options(dbc)
		if err != nil {
			return err
		}
		snaps := make([]domainagg.OptionSnapshot, 0, len(refreshed))
		for _, o := range refreshed {
			tolls, err := a.deps.Tolls.ListByOptionID(dbc, o.ID)
			if err != nil {
				return err
			}
			snaps = append(snaps, optionSnapshotFrom(o, tolls))
		}
		out = domainagg.BulkSyncResult{
			PathwayID:       e.row.ID,
			Options:         snaps,
			Created:         len(plan.creates),
			Updated:         len(plan.updates),
			Deleted:         len(plan.deleteIDs),
			DefaultOptionID: plan.defaultID,
			SyncedAt:        now,
		}
		return nil
	})
	return out, err
}

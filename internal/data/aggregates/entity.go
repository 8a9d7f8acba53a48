package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
)

// pathwayEntity is the in-transaction working view of one locked pathway.
// The option collection loads lazily on first use and stays cached until a
// mutation invalidates it.
type pathwayEntity struct {
	agg *pathwayAggregate
	row *types.Pathway

	opts       []*types.PathwayOption
	optsLoaded bool
}

// lockPathway loads the pathway under FOR UPDATE and anchors the write.
func (a *pathwayAggregate) lockPathway(dbc dbctx.Context, op string, id uuid.UUID) (*pathwayEntity, error) {
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing pathway_id", nil)
	}
	row, err := a.deps.Pathways.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.ID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pathway not found: %s", id.String()), nil)
	}
	return &pathwayEntity{agg: a, row: row}, nil
}

func (e *pathwayEntity) options(dbc dbctx.Context) ([]*types.PathwayOption, error) {
	if !e.optsLoaded {
		opts, err := e.agg.deps.Options.ListByPathwayID(dbc, e.row.ID)
		if err != nil {
			return nil, err
		}
		e.opts = opts
		e.optsLoaded = true
	}
	return e.opts, nil
}

func (e *pathwayEntity) invalidateOptions() {
	e.opts = nil
	e.optsLoaded = false
}

// findOption resolves one of the pathway's own options. A live option that
// belongs to another pathway is an ownership violation, not a lookup miss.
func (e *pathwayEntity) findOption(dbc dbctx.Context, op string, optionID uuid.UUID) (*types.PathwayOption, error) {
	if optionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing option_id", nil)
	}
	opts, err := e.options(dbc)
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		if o != nil && o.ID == optionID {
			return o, nil
		}
	}
	row, err := e.agg.deps.Options.GetByID(dbc, optionID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.ID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("option not found: %s", optionID.String()), nil)
	}
	return nil, InvariantError("option does not belong to pathway")
}

// snapshot materializes the pathway with its current option collection.
// Option entries carry no toll lists; callers needing tolls fetch them.
func (e *pathwayEntity) snapshot(dbc dbctx.Context) (domainagg.PathwaySnapshot, error) {
	opts, err := e.options(dbc)
	if err != nil {
		return domainagg.PathwaySnapshot{}, err
	}
	optSnaps := make([]domainagg.OptionSnapshot, 0, len(opts))
	for _, o := range opts {
		optSnaps = append(optSnaps, optionSnapshotFrom(o, nil))
	}
	return pathwaySnapshotFrom(e.row, optSnaps), nil
}

package aggregates

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tollgrid/pathways-backend/internal/data/repos"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

type PathwayAggregateDeps struct {
	Base BaseDeps

	Pathways repos.PathwayRepo
	Options  repos.PathwayOptionRepo
	Tolls    repos.PathwayOptionTollRepo
	Nodes    repos.TransitNodeRepo
}

type pathwayAggregate struct {
	deps PathwayAggregateDeps
}

func NewPathwayAggregate(deps PathwayAggregateDeps) domainagg.PathwayAggregate {
	deps.Base = deps.Base.withDefaults()
	return &pathwayAggregate{deps: deps}
}

func (a *pathwayAggregate) Contract() domainagg.Contract {
	return domainagg.PathwayAggregateContract
}

func (a *pathwayAggregate) checkDeps(op string) error {
	if a.deps.Pathways == nil || a.deps.Options == nil || a.deps.Tolls == nil || a.deps.Nodes == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "pathway aggregate repos not configured", nil)
	}
	return nil
}

func (a *pathwayAggregate) CreatePathway(ctx context.Context, in domainagg.CreatePathwayInput) (domainagg.PathwaySnapshot, error) {
	const op = "Transit.Pathway.Create"
	var out domainagg.PathwaySnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	name := strings.TrimSpace(in.Name)
	code := strings.TrimSpace(in.Code)

	col := NewCollector()
	if name == "" {
		col.Add("name", domainagg.ViolationRequired, "name is required", nil)
	}
	if code == "" {
		col.Add("code", domainagg.ViolationRequired, "code is required", nil)
	}
	if in.OriginNodeID == uuid.Nil {
		col.Add("originNodeId", domainagg.ViolationRequired, "originNodeId is required", nil)
	}
	if in.DestinationNodeID == uuid.Nil {
		col.Add("destinationNodeId", domainagg.ViolationRequired, "destinationNodeId is required", nil)
	}
	if in.OriginNodeID != uuid.Nil && in.OriginNodeID == in.DestinationNodeID {
		col.Add("destinationNodeId", domainagg.ViolationOriginEqualsDestination, "origin and destination nodes must differ", in.DestinationNodeID.String())
	}
	if in.IsEmptyTrip && in.IsSellable {
		col.Add("isSellable", domainagg.ViolationEmptyTripSellable, "empty trips cannot be sellable", true)
	}
	if err := col.Err(op); err != nil {
		return out, err
	}

	var metaJSON datatypes.JSON
	if in.Metadata != nil {
		b, err := json.Marshal(in.Metadata)
		if err != nil {
			return out, domainagg.NewError(domainagg.CodeValidation, op, "metadata is not serializable", err)
		}
		metaJSON = datatypes.JSON(b)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		nodes, err := a.deps.Nodes.GetByIDs(dbc, []uuid.UUID{in.OriginNodeID, in.DestinationNodeID})
		if err != nil {
			return err
		}
		byID := map[uuid.UUID]*types.TransitNode{}
		for _, n := range nodes {
			if n != nil {
				byID[n.ID] = n
			}
		}
		ncol := NewCollector()
		origin, ok := byID[in.OriginNodeID]
		if !ok {
			ncol.Add("originNodeId", domainagg.ViolationNodeNotFound, "origin node does not exist", in.OriginNodeID.String())
		}
		dest, ok := byID[in.DestinationNodeID]
		if !ok {
			ncol.Add("destinationNodeId", domainagg.ViolationNodeNotFound, "destination node does not exist", in.DestinationNodeID.String())
		}
		if err := ncol.Err(op); err != nil {
			return err
		}

		// New pathways start inactive; activation is an explicit update once
		// at least one option exists.
		row := &types.Pathway{
			ID:                uuid.New(),
			OriginNodeID:      in.OriginNodeID,
			DestinationNodeID: in.DestinationNodeID,
			OriginCityID:      origin.CityID,
			DestinationCityID: dest.CityID,
			Name:              name,
			Code:              code,
			Description:       strings.TrimSpace(in.Description),
			IsSellable:        in.IsSellable,
			IsEmptyTrip:       in.IsEmptyTrip,
			Active:            false,
			Version:           0,
			Metadata:          metaJSON,
		}
		if _, err := a.deps.Pathways.Create(dbc, []*types.Pathway{row}); err != nil {
			return err
		}
		out = pathwaySnapshotFrom(row, nil)
		return nil
	})
	return out, err
}

func (a *pathwayAggregate) UpdatePathway(ctx context.Context, in domainagg.UpdatePathwayInput) (domainagg.PathwaySnapshot, error) {
	const op = "Transit.Pathway.Update"
	var out domainagg.PathwaySnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		row := e.row

		col := NewCollector()
		if in.Name != nil {
			row.Name = strings.TrimSpace(*in.Name)
			if row.Name == "" {
				col.Add("name", domainagg.ViolationRequired, "name is required", nil)
			}
		}
		if in.Code != nil {
			row.Code = strings.TrimSpace(*in.Code)
			if row.Code == "" {
				col.Add("code", domainagg.ViolationRequired, "code is required", nil)
			}
		}
		if in.Description != nil {
			row.Description = strings.TrimSpace(*in.Description)
		}
		if in.OriginNodeID != nil {
			row.OriginNodeID = *in.OriginNodeID
		}
		if in.DestinationNodeID != nil {
			row.DestinationNodeID = *in.DestinationNodeID
		}
		if row.OriginNodeID == row.DestinationNodeID {
			col.Add("destinationNodeId", domainagg.ViolationOriginEqualsDestination, "origin and destination nodes must differ", row.DestinationNodeID.String())
		}
		if in.IsSellable != nil {
			row.IsSellable = *in.IsSellable
		}
		if in.IsEmptyTrip != nil {
			row.IsEmptyTrip = *in.IsEmptyTrip
		}
		if row.IsEmptyTrip && row.IsSellable {
			col.Add("isSellable", domainagg.ViolationEmptyTripSellable, "empty trips cannot be sellable", true)
		}
		if in.Metadata != nil {
			b, err := json.Marshal(in.Metadata)
			if err != nil {
				return domainagg.NewError(domainagg.CodeValidation, op, "metadata is not serializable", err)
			}
			row.Metadata = datatypes.JSON(b)
		}

		// Endpoint changes re-derive both city ids from the new node pair.
		if in.OriginNodeID != nil || in.DestinationNodeID != nil {
			nodes, err := a.deps.Nodes.GetByIDs(dbc, []uuid.UUID{row.OriginNodeID, row.DestinationNodeID})
			if err != nil {
				return err
			}
			byID := map[uuid.UUID]*types.TransitNode{}
			for _, n := range nodes {
				if n != nil {
					byID[n.ID] = n
				}
			}
			if origin, ok := byID[row.OriginNodeID]; ok {
				row.OriginCityID = origin.CityID
			} else {
				col.Add("originNodeId", domainagg.ViolationNodeNotFound, "origin node does not exist", row.OriginNodeID.String())
			}
			if dest, ok := byID[row.DestinationNodeID]; ok {
				row.DestinationCityID = dest.CityID
			} else {
				col.Add("destinationNodeId", domainagg.ViolationNodeNotFound, "destination node does not exist", row.DestinationNodeID.String())
			}
		}
		if err := col.Err(op); err != nil {
			return err
		}

		if in.Active != nil {
			if *in.Active && !row.Active {
				n, err := a.deps.Options.CountByPathwayID(dbc, row.ID)
				if err != nil {
					return err
				}
				if n == 0 {
					return InvariantError("cannot activate a pathway without options")
				}
			}
			row.Active = *in.Active
		}

		row.UpdatedAt = time.Now().UTC()
		if err := a.deps.Pathways.Update(dbc, row); err != nil {
			return err
		}
		out, err = e.snapshot(dbc)
		return err
	})
	return out, err
}

func (a *pathwayAggregate) AddOption(ctx context.Context, in domainagg.AddOptionInput) (domainagg.OptionSnapshot, error) {
	const op = "Transit.Pathway.AddOption"
	var out domainagg.OptionSnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		current, err := e.options(dbc)
		if err != nil {
			return err
		}

		col := NewCollector()
		row := &types.PathwayOption{
			ID:        uuid.New(),
			PathwayID: e.row.ID,
			Active:    true,
			Sequence:  maxOptionSequence(current) + 1,
		}
		applyOptionPayload(row, in.Option, true, col)

		// The very first option becomes default unless the payload says
		// otherwise; refusing the flag on an empty collection would leave
		// the pathway without a default. Adding an option never activates
		// the pathway itself.
		if in.Option.IsDefault == nil {
			row.IsDefault = len(current) == 0
		} else if !*in.Option.IsDefault && len(current) == 0 {
			col.Add("isDefault", domainagg.ViolationNoDefaultOption, "the first option must be the default", false)
		}
		if row.IsDefault && !row.Active {
			col.Add("isDefault", domainagg.ViolationDefaultMustBeActive, "the default option must be active", nil)
		}
		if err := col.Err(op); err != nil {
			return err
		}

		// The previous default is demoted before the new row lands; the
		// single-default index admits one live default per pathway at every
		// statement.
		if row.IsDefault {
			for _, cur := range current {
				if cur != nil && cur.IsDefault {
					if err := a.deps.Options.UpdateFields(dbc, cur.ID, map[string]interface{}{"is_default": false}); err != nil {
						return err
					}
				}
			}
		}
		if _, err := a.deps.Options.Create(dbc, []*types.PathwayOption{row}); err != nil {
			return err
		}
		e.invalidateOptions()
		out = optionSnapshotFrom(row, nil)
		return nil
	})
	return out, err
}

func (a *pathwayAggregate) RemoveOption(ctx context.Context, in domainagg.RemoveOptionInput) (domainagg.PathwaySnapshot, error) {
	const op = "Transit.Pathway.RemoveOption"
	var out domainagg.PathwaySnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		opt, err := e.findOption(dbc, op, in.OptionID)
		if err != nil {
			return err
		}
		if opt.IsDefault {
			return InvariantError("cannot remove the default option; set another default first")
		}
		current, err := e.options(dbc)
		if err != nil {
			return err
		}
		if e.row.Active && len(current) == 1 {
			return InvariantError("cannot remove the last option of an active pathway")
		}

		if err := a.deps.Options.SoftDeleteByIDs(dbc, []uuid.UUID{opt.ID}); err != nil {
			return err
		}
		if err := a.deps.Tolls.DeleteByOptionID(dbc, opt.ID); err != nil {
			return err
		}
		e.invalidateOptions()
		out, err = e.snapshot(dbc)
		return err
	})
	return out, err
}

func (a *pathwayAggregate) UpdateOption(ctx context.Context, in domainagg.UpdateOptionInput) (domainagg.OptionSnapshot, error) {
	const op = "Transit.Pathway.UpdateOption"
	var out domainagg.OptionSnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		opt, err := e.findOption(dbc, op, in.OptionID)
		if err != nil {
			return err
		}
		wasDefault := opt.IsDefault
		if wasDefault && in.Option.IsDefault != nil && !*in.Option.IsDefault {
			return InvariantError("cannot unset the default flag; promote another option instead")
		}

		col := NewCollector()
		applyOptionPayload(opt, in.Option, false, col)
		if opt.IsDefault && !opt.Active {
			col.Add("isDefault", domainagg.ViolationDefaultMustBeActive, "the default option must be active", nil)
		}
		if err := col.Err(op); err != nil {
			return err
		}

		// Demote the current default before the promoted row writes its
		// flag; the single-default index admits one live default at a time.
		if opt.IsDefault && !wasDefault {
			current, err := e.options(dbc)
			if err != nil {
				return err
			}
			for _, cur := range current {
				if cur != nil && cur.ID != opt.ID && cur.IsDefault {
					if err := a.deps.Options.UpdateFields(dbc, cur.ID, map[string]interface{}{"is_default": false}); err != nil {
						return err
					}
				}
			}
		}
		opt.UpdatedAt = time.Now().UTC()
		if err := a.deps.Options.Update(dbc, opt); err != nil {
			return err
		}
		e.invalidateOptions()
		out = optionSnapshotFrom(opt, nil)
		return nil
	})
	return out, err
}

func (a *pathwayAggregate) SetDefaultOption(ctx context.Context, in domainagg.SetDefaultOptionInput) (domainagg.PathwaySnapshot, error) {
	const op = "Transit.Pathway.SetDefaultOption"
	var out domainagg.PathwaySnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		opt, err := e.findOption(dbc, op, in.OptionID)
		if err != nil {
			return err
		}
		if opt.IsDefault {
			out, err = e.snapshot(dbc)
			return err
		}
		if !opt.Active {
			col := NewCollector()
			col.Add("optionId", domainagg.ViolationDefaultMustBeActive, "the default option must be active", opt.ID.String())
			return col.Err(op)
		}
		if err := a.deps.Options.SetDefaultOption(dbc, e.row.ID, opt.ID); err != nil {
			return err
		}
		e.invalidateOptions()
		out, err = e.snapshot(dbc)
		return err
	})
	return out, err
}

func (a *pathwayAggregate) SyncOptionTolls(ctx context.Context, in domainagg.SyncOptionTollsInput) (domainagg.OptionSnapshot, error) {
	const op = "Transit.Pathway.SyncOptionTolls"
	var out domainagg.OptionSnapshot
	if err := a.checkDeps(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, err := a.lockPathway(dbc, op, in.PathwayID)
		if err != nil {
			return err
		}
		opt, err := e.findOption(dbc, op, in.OptionID)
		if err != nil {
			return err
		}

		known, err := a.knownTollNodes(dbc, in.Tolls)
		if err != nil {
			return err
		}
		col := NewCollector()
		rows := buildTollRows(opt, in.Tolls, known, col)
		if err := col.Err(op); err != nil {
			return err
		}

		// Destructive replacement: the payload is the complete new toll list,
		// and an empty payload clears every toll.
		if err := a.deps.Tolls.DeleteByOptionID(dbc, opt.ID); err != nil {
			return err
		}
		if _, err := a.deps.Tolls.CreateMany(dbc, rows); err != nil {
			return err
		}
		out = optionSnapshotFrom(opt, rows)
		return nil
	})
	return out, err
}

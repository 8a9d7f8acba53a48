package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tollgrid/pathways-backend/internal/data/repos"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

// PathwayService fronts the pathway catalog. Reads assemble views straight
// from the repos; every write delegates to the pathway aggregate, which owns
// the transaction, and errors pass through unchanged.
type PathwayService interface {
	GetPathway(ctx context.Context, pathwayID uuid.UUID) (*PathwayDetail, error)
	GetPathwayByCode(ctx context.Context, code string) (*PathwayDetail, error)
	ListPathways(ctx context.Context, in ListPathwaysInput) ([]*types.Pathway, error)
	GetOptionTolls(ctx context.Context, pathwayID, optionID uuid.UUID) ([]*types.PathwayOptionToll, error)

	CreatePathway(ctx context.Context, in domainagg.CreatePathwayInput) (domainagg.PathwaySnapshot, error)
	UpdatePathway(ctx context.Context, in domainagg.UpdatePathwayInput) (domainagg.PathwaySnapshot, error)
	AddOption(ctx context.Context, in domainagg.AddOptionInput) (domainagg.OptionSnapshot, error)
	UpdateOption(ctx context.Context, in domainagg.UpdateOptionInput) (domainagg.OptionSnapshot, error)
	RemoveOption(ctx context.Context, in domainagg.RemoveOptionInput) (domainagg.PathwaySnapshot, error)
	SetDefaultOption(ctx context.Context, in domainagg.SetDefaultOptionInput) (domainagg.PathwaySnapshot, error)
	SyncOptionTolls(ctx context.Context, in domainagg.SyncOptionTollsInput) (domainagg.OptionSnapshot, error)
	BulkSyncOptions(ctx context.Context, in domainagg.BulkSyncOptionsInput) (domainagg.BulkSyncResult, error)
}

type ListPathwaysInput struct {
	OriginCityID      uuid.UUID
	DestinationCityID uuid.UUID
	ActiveOnly        bool
}

// PathwayDetail is a pathway with its options and per-option toll counts.
type PathwayDetail struct {
	Pathway *types.Pathway `json:"pathway"`
	Options []OptionDetail `json:"options"`
}

type OptionDetail struct {
	Option    *types.PathwayOption `json:"option"`
	TollCount int64                `json:"toll_count"`
}

type pathwayService struct {
	db          *gorm.DB
	log         *logger.Logger
	aggregate   domainagg.PathwayAggregate
	pathwayRepo repos.PathwayRepo
	optionRepo  repos.PathwayOptionRepo
	tollRepo    repos.PathwayOptionTollRepo
}

func NewPathwayService(
	db *gorm.DB,
	baseLog *logger.Logger,
	aggregate domainagg.PathwayAggregate,
	pathwayRepo repos.PathwayRepo,
	optionRepo repos.PathwayOptionRepo,
	tollRepo repos.PathwayOptionTollRepo,
) PathwayService {
	return &pathwayService{
		db:          db,
		log:         baseLog.With("service", "PathwayService"),
		aggregate:   aggregate,
		pathwayRepo: pathwayRepo,
		optionRepo:  optionRepo,
		tollRepo:    tollRepo,
	}
}

func (s *pathwayService) GetPathway(ctx context.Context, pathwayID uuid.UUID) (*PathwayDetail, error) {
	const op = "PathwayService.GetPathway"
	dbc := dbctx.Context{Ctx: ctx}

	pw, err := s.pathwayRepo.GetByID(dbc, pathwayID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if pw == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "pathway not found", nil)
	}
	return s.assembleDetail(dbc, op, pw)
}

func (s *pathwayService) GetPathwayByCode(ctx context.Context, code string) (*PathwayDetail, error) {
	const op = "PathwayService.GetPathwayByCode"
	dbc := dbctx.Context{Ctx: ctx}

	pw, err := s.pathwayRepo.GetByCode(dbc, code)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if pw == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "pathway not found", nil)
	}
	return s.assembleDetail(dbc, op, pw)
}

func (s *pathwayService) assembleDetail(dbc dbctx.Context, op string, pw *types.Pathway) (*PathwayDetail, error) {
	opts, err := s.optionRepo.ListByPathwayID(dbc, pw.ID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	ids := make([]uuid.UUID, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.ID)
	}
	counts, err := s.tollRepo.CountByOptionIDs(dbc, ids)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	detail := &PathwayDetail{Pathway: pw, Options: make([]OptionDetail, 0, len(opts))}
	for _, o := range opts {
		detail.Options = append(detail.Options, OptionDetail{
			Option:    o,
			TollCount: counts[o.ID],
		})
	}
	return detail, nil
}

func (s *pathwayService) ListPathways(ctx context.Context, in ListPathwaysInput) ([]*types.Pathway, error) {
	const op = "PathwayService.ListPathways"
	dbc := dbctx.Context{Ctx: ctx}

	rows, err := s.pathwayRepo.ListByCityPair(dbc, in.OriginCityID, in.DestinationCityID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if !in.ActiveOnly {
		return rows, nil
	}
	out := make([]*types.Pathway, 0, len(rows))
	for _, pw := range rows {
		if pw.Active {
			out = append(out, pw)
		}
	}
	return out, nil
}

func (s *pathwayService) GetOptionTolls(ctx context.Context, pathwayID, optionID uuid.UUID) ([]*types.PathwayOptionToll, error) {
	const op = "PathwayService.GetOptionTolls"
	dbc := dbctx.Context{Ctx: ctx}

	opt, err := s.optionRepo.GetByID(dbc, optionID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if opt == nil || opt.PathwayID != pathwayID {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "option not found", nil)
	}
	tolls, err := s.tollRepo.ListByOptionID(dbc, optionID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return tolls, nil
}

func (s *pathwayService) CreatePathway(ctx context.Context, in domainagg.CreatePathwayInput) (domainagg.PathwaySnapshot, error) {
	return s.aggregate.CreatePathway(ctx, in)
}

func (s *pathwayService) UpdatePathway(ctx context.Context, in domainagg.UpdatePathwayInput) (domainagg.PathwaySnapshot, error) {
	return s.aggregate.UpdatePathway(ctx, in)
}

func (s *pathwayService) AddOption(ctx context.Context, in domainagg.AddOptionInput) (domainagg.OptionSnapshot, error) {
	return s.aggregate.AddOption(ctx, in)
}

func (s *pathwayService) UpdateOption(ctx context.Context, in domainagg.UpdateOptionInput) (domainagg.OptionSnapshot, error) {
	return s.aggregate.UpdateOption(ctx, in)
}

func (s *pathwayService) RemoveOption(ctx context.Context, in domainagg.RemoveOptionInput) (domainagg.PathwaySnapshot, error) {
	return s.aggregate.RemoveOption(ctx, in)
}

func (s *pathwayService) SetDefaultOption(ctx context.Context, in domainagg.SetDefaultOptionInput) (domainagg.PathwaySnapshot, error) {
	return s.aggregate.SetDefaultOption(ctx, in)
}

func (s *pathwayService) SyncOptionTolls(ctx context.Context, in domainagg.SyncOptionTollsInput) (domainagg.OptionSnapshot, error) {
	return s.aggregate.SyncOptionTolls(ctx, in)
}

func (s *pathwayService) BulkSyncOptions(ctx context.Context, in domainagg.BulkSyncOptionsInput) (domainagg.BulkSyncResult, error) {
	return s.aggregate.BulkSyncOptions(ctx, in)
}

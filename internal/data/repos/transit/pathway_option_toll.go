package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

type PathwayOptionTollRepo interface {
	ListByOptionID(dbc dbctx.Context, optionID uuid.UUID) ([]*types.PathwayOptionToll, error)
	CountByOptionIDs(dbc dbctx.Context, optionIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	CreateMany(dbc dbctx.Context, rows []*types.PathwayOptionToll) ([]*types.PathwayOptionToll, error)
	UpdateMany(dbc dbctx.Context, rows []*types.PathwayOptionToll) error

	// DeleteByOptionID hard-deletes the option's tolls. Toll sync is
	// destructive replacement, so no soft-delete trail is kept.
	DeleteByOptionID(dbc dbctx.Context, optionID uuid.UUID) error
}

type pathwayOptionTollRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathwayOptionTollRepo(db *gorm.DB, baseLog *logger.Logger) PathwayOptionTollRepo {
	return &pathwayOptionTollRepo{db: db, log: baseLog.With("repo", "PathwayOptionTollRepo")}
}

func (r *pathwayOptionTollRepo) ListByOptionID(dbc dbctx.Context, optionID uuid.UUID) ([]*types.PathwayOptionToll, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PathwayOptionToll
	if optionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("pathway_option_id = ?", optionID).
		Order("sequence ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type tollCountRow struct {
	PathwayOptionID uuid.UUID `gorm:"column:pathway_option_id"`
	N               int64     `gorm:"column:n"`
}

func (r *pathwayOptionTollRepo) CountByOptionIDs(dbc dbctx.Context, optionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := map[uuid.UUID]int64{}
	if len(optionIDs) == 0 {
		return out, nil
	}
	var rows []tollCountRow
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PathwayOptionToll{}).
		Select("pathway_option_id, COUNT(*) AS n").
		Where("pathway_option_id IN ?", optionIDs).
		Group("pathway_option_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PathwayOptionID] = row.N
	}
	return out, nil
}

func (r *pathwayOptionTollRepo) CreateMany(dbc dbctx.Context, rows []*types.PathwayOptionToll) ([]*types.PathwayOptionToll, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PathwayOptionToll{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pathwayOptionTollRepo) UpdateMany(dbc dbctx.Context, rows []*types.PathwayOptionToll) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil || row.ID == uuid.Nil {
			continue
		}
		row.UpdatedAt = now
		if err := t.WithContext(dbc.Ctx).Save(row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *pathwayOptionTollRepo) DeleteByOptionID(dbc dbctx.Context, optionID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if optionID == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("pathway_option_id = ?", optionID).
		Delete(&types.PathwayOptionToll{}).Error
}

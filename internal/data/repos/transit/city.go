package transit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

type CityRepo interface {
	Create(dbc dbctx.Context, rows []*types.City) ([]*types.City, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.City, error)
	GetByCode(dbc dbctx.Context, code string) (*types.City, error)
}

type cityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCityRepo(db *gorm.DB, baseLog *logger.Logger) CityRepo {
	return &cityRepo{db: db, log: baseLog.With("repo", "CityRepo")}
}

func (r *cityRepo) Create(dbc dbctx.Context, rows []*types.City) ([]*types.City, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.City{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *cityRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.City, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.City
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cityRepo) GetByCode(dbc dbctx.Context, code string) (*types.City, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.City
	if err := t.WithContext(dbc.Ctx).Where("code = ?", code).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

type PathwayRepo interface {
	Create(dbc dbctx.Context, rows []*types.Pathway) ([]*types.Pathway, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Pathway, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Pathway, error)
	// LockByID loads the pathway under FOR UPDATE. Callers must hold a
	// transaction; it anchors every multi-entity option write.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Pathway, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Pathway, error)
	ListByCityPair(dbc dbctx.Context, originCityID, destinationCityID uuid.UUID) ([]*types.Pathway, error)

	Update(dbc dbctx.Context, row *types.Pathway) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type pathwayRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathwayRepo(db *gorm.DB, baseLog *logger.Logger) PathwayRepo {
	return &pathwayRepo{db: db, log: baseLog.With("repo", "PathwayRepo")}
}

func (r *pathwayRepo) Create(dbc dbctx.Context, rows []*types.Pathway) ([]*types.Pathway, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Pathway{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pathwayRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Pathway, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *pathwayRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Pathway, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Pathway
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pathwayRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Pathway, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Pathway
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *pathwayRepo) GetByCode(dbc dbctx.Context, code string) (*types.Pathway, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.Pathway
	if err := t.WithContext(dbc.Ctx).Where("code = ?", code).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *pathwayRepo) ListByCityPair(dbc dbctx.Context, originCityID, destinationCityID uuid.UUID) ([]*types.Pathway, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Pathway
	q := t.WithContext(dbc.Ctx)
	if originCityID != uuid.Nil {
		q = q.Where("origin_city_id = ?", originCityID)
	}
	if destinationCityID != uuid.Nil {
		q = q.Where("destination_city_id = ?", destinationCityID)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pathwayRepo) Update(dbc dbctx.Context, row *types.Pathway) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Save(row).Error
}

func (r *pathwayRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Pathway{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *pathwayRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Pathway{}).Error
}

package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

type PathwayOptionRepo interface {
	Create(dbc dbctx.Context, rows []*types.PathwayOption) ([]*types.PathwayOption, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PathwayOption, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PathwayOption, error)
	ListByPathwayID(dbc dbctx.Context, pathwayID uuid.UUID) ([]*types.PathwayOption, error)
	CountByPathwayID(dbc dbctx.Context, pathwayID uuid.UUID) (int64, error)

	Update(dbc dbctx.Context, row *types.PathwayOption) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	// SetDefaultOption clears every default flag on the pathway and sets the
	// one option in two statements. Callers run it inside a transaction.
	SetDefaultOption(dbc dbctx.Context, pathwayID, optionID uuid.UUID) error

	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type pathwayOptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathwayOptionRepo(db *gorm.DB, baseLog *logger.Logger) PathwayOptionRepo {
	return &pathwayOptionRepo{db: db, log: baseLog.With("repo", "PathwayOptionRepo")}
}

func (r *pathwayOptionRepo) Create(dbc dbctx.Context, rows []*types.PathwayOption) ([]*types.PathwayOption, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PathwayOption{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pathwayOptionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PathwayOption, error) {
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

func (r *pathwayOptionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PathwayOption, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PathwayOption
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pathwayOptionRepo) ListByPathwayID(dbc dbctx.Context, pathwayID uuid.UUID) ([]*types.PathwayOption, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PathwayOption
	if pathwayID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("pathway_id = ?", pathwayID).
		Order("sequence ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pathwayOptionRepo) CountByPathwayID(dbc dbctx.Context, pathwayID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if pathwayID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PathwayOption{}).
		Where("pathway_id = ?", pathwayID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *pathwayOptionRepo) Update(dbc dbctx.Context, row *types.PathwayOption) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Save(row).Error
}

func (r *pathwayOptionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.PathwayOption{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *pathwayOptionRepo) SetDefaultOption(dbc dbctx.Context, pathwayID, optionID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if pathwayID == uuid.Nil || optionID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PathwayOption{}).
		Where("pathway_id = ? AND is_default = ? AND id <> ?", pathwayID, true, optionID).
		Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.PathwayOption{}).
		Where("id = ? AND pathway_id = ?", optionID, pathwayID).
		Updates(map[string]interface{}{"is_default": true, "updated_at": now}).Error
}

func (r *pathwayOptionRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.PathwayOption{}).Error
}

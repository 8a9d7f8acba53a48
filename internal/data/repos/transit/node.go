package transit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

// TransitNodeRepo is read-mostly: the pathway core only checks node
// existence and reads the owning city. Create exists for the seeder.
type TransitNodeRepo interface {
	Create(dbc dbctx.Context, rows []*types.TransitNode) ([]*types.TransitNode, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TransitNode, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.TransitNode, error)
	GetByCode(dbc dbctx.Context, code string) (*types.TransitNode, error)
}

type transitNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransitNodeRepo(db *gorm.DB, baseLog *logger.Logger) TransitNodeRepo {
	return &transitNodeRepo{db: db, log: baseLog.With("repo", "TransitNodeRepo")}
}

func (r *transitNodeRepo) Create(dbc dbctx.Context, rows []*types.TransitNode) ([]*types.TransitNode, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.TransitNode{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transitNodeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TransitNode, error) {
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

func (r *transitNodeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.TransitNode, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.TransitNode
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *transitNodeRepo) GetByCode(dbc dbctx.Context, code string) (*types.TransitNode, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.TransitNode
	if err := t.WithContext(dbc.Ctx).Where("code = ?", code).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

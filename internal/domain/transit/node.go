package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NodeKindTerminal  = "terminal"
	NodeKindJunction  = "junction"
	NodeKindTollbooth = "tollbooth"
)

// TransitNode is a point a pathway can start at, end at, or pass through.
// Master data: the pathway core only validates existence and reads CityID.
type TransitNode struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CityID uuid.UUID `gorm:"type:uuid;not null;index" json:"city_id"`
	City   *City     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CityID;references:ID" json:"city,omitempty"`

	Name string  `gorm:"column:name;not null" json:"name"`
	Code string  `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Kind string  `gorm:"column:kind;not null;default:'terminal';index" json:"kind"`
	Lat  float64 `gorm:"column:lat" json:"lat"`
	Lng  float64 `gorm:"column:lng" json:"lng"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TransitNode) TableName() string { return "transit_node" }

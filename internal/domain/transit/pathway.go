package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pathway is a directed route definition between two transit nodes.
// City ids are derived from the nodes when the pathway is saved, never
// supplied by callers. Version guards concurrent option-set rewrites.
type Pathway struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OriginNodeID      uuid.UUID `gorm:"type:uuid;column:origin_node_id;not null;index" json:"origin_node_id"`
	DestinationNodeID uuid.UUID `gorm:"type:uuid;column:destination_node_id;not null;index" json:"destination_node_id"`
	OriginCityID      uuid.UUID `gorm:"type:uuid;column:origin_city_id;index" json:"origin_city_id"`
	DestinationCityID uuid.UUID `gorm:"type:uuid;column:destination_city_id;index" json:"destination_city_id"`

	Name        string `gorm:"column:name;not null" json:"name"`
	Code        string `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`

	IsSellable  bool `gorm:"column:is_sellable;not null;default:false" json:"is_sellable"`
	IsEmptyTrip bool `gorm:"column:is_empty_trip;not null;default:false" json:"is_empty_trip"`
	Active      bool `gorm:"column:active;not null;default:false;index" json:"active"`

	Version  int            `gorm:"column:version;not null;default:0" json:"version"`
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	Options []PathwayOption `gorm:"foreignKey:PathwayID;references:ID" json:"options,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pathway) TableName() string { return "pathway" }

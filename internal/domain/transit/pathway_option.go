package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PathwayOption is one alternative way to traverse a pathway. AvgSpeedKmh is
// derived from distance/time unless the caller supplied it verbatim.
// Exactly one option per pathway carries IsDefault when any option exists.
type PathwayOption struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PathwayID uuid.UUID `gorm:"type:uuid;column:pathway_id;not null;index" json:"pathway_id"`
	Pathway   *Pathway  `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayID;references:ID" json:"pathway,omitempty"`

	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`

	DistanceKm     float64 `gorm:"column:distance_km;not null" json:"distance_km"`
	TypicalTimeMin int     `gorm:"column:typical_time_min;not null" json:"typical_time_min"`
	AvgSpeedKmh    int     `gorm:"column:avg_speed_kmh;not null" json:"avg_speed_kmh"`

	IsDefault          bool `gorm:"column:is_default;not null;default:false;index" json:"is_default"`
	IsPassThrough      bool `gorm:"column:is_pass_through;not null;default:false" json:"is_pass_through"`
	PassThroughTimeMin *int `gorm:"column:pass_through_time_min" json:"pass_through_time_min,omitempty"`

	Sequence int  `gorm:"column:sequence;not null;default:0" json:"sequence"`
	Active   bool `gorm:"column:active;not null;default:true" json:"active"`

	Tolls []PathwayOptionToll `gorm:"foreignKey:PathwayOptionID;references:ID" json:"tolls,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PathwayOption) TableName() string { return "pathway_option" }

// PathwayOptionToll is a toll stop along an option, ordered by Sequence.
// The sequence is always assigned from input position, 1-based and
// contiguous; caller-supplied values are ignored.
type PathwayOptionToll struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PathwayOptionID uuid.UUID      `gorm:"type:uuid;column:pathway_option_id;not null;index:idx_option_toll_seq,priority:1" json:"pathway_option_id"`
	Option          *PathwayOption `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayOptionID;references:ID" json:"option,omitempty"`

	NodeID uuid.UUID    `gorm:"type:uuid;column:node_id;not null;index" json:"node_id"`
	Node   *TransitNode `gorm:"foreignKey:NodeID;references:ID" json:"node,omitempty"`

	Sequence    int      `gorm:"column:sequence;not null;index:idx_option_toll_seq,priority:2" json:"sequence"`
	DistanceKm  *float64 `gorm:"column:distance_km" json:"distance_km,omitempty"`
	PassTimeMin *int     `gorm:"column:pass_time_min" json:"pass_time_min,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PathwayOptionToll) TableName() string { return "pathway_option_toll" }

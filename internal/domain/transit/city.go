package transit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// City is master data. The pathway core never writes cities; they arrive
// through the seeder and are read to resolve a node's owning city.
type City struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null" json:"name"`
	Code string    `gorm:"column:code;not null;uniqueIndex" json:"code"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (City) TableName() string { return "city" }

package repos

import (
	"gorm.io/gorm"

	"github.com/tollgrid/pathways-backend/internal/data/repos/transit"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
)

type PathwayRepo = transit.PathwayRepo
type PathwayOptionRepo = transit.PathwayOptionRepo
type PathwayOptionTollRepo = transit.PathwayOptionTollRepo
type TransitNodeRepo = transit.TransitNodeRepo
type CityRepo = transit.CityRepo

func NewPathwayRepo(db *gorm.DB, baseLog *logger.Logger) PathwayRepo {
	return transit.NewPathwayRepo(db, baseLog)
}

func NewPathwayOptionRepo(db *gorm.DB, baseLog *logger.Logger) PathwayOptionRepo {
	return transit.NewPathwayOptionRepo(db, baseLog)
}

func NewPathwayOptionTollRepo(db *gorm.DB, baseLog *logger.Logger) PathwayOptionTollRepo {
	return transit.NewPathwayOptionTollRepo(db, baseLog)
}

func NewTransitNodeRepo(db *gorm.DB, baseLog *logger.Logger) TransitNodeRepo {
	return transit.NewTransitNodeRepo(db, baseLog)
}

func NewCityRepo(db *gorm.DB, baseLog *logger.Logger) CityRepo {
	return transit.NewCityRepo(db, baseLog)
}

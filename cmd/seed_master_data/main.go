package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tollgrid/pathways-backend/internal/data/db"
	"github.com/tollgrid/pathways-backend/internal/data/repos"
	types "github.com/tollgrid/pathways-backend/internal/domain"
	"github.com/tollgrid/pathways-backend/internal/platform/dbctx"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
	"github.com/tollgrid/pathways-backend/internal/utils"
)

type seedFile struct {
	Cities []seedCity `yaml:"cities"`
}

type seedCity struct {
	Code  string     `yaml:"code"`
	Name  string     `yaml:"name"`
	Nodes []seedNode `yaml:"nodes"`
}

type seedNode struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// Idempotent master data loader: cities and transit nodes are matched by
// code, existing rows are left untouched.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	path := utils.GetEnv("SEED_FILE", "seed/master_data.yaml", log)
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read seed file", "path", path, "error", err)
		os.Exit(1)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		log.Error("Failed to parse seed file", "path", path, "error", err)
		os.Exit(1)
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	cityRepo := repos.NewCityRepo(thePG, log)
	nodeRepo := repos.NewTransitNodeRepo(thePG, log)
	dbc := dbctx.Context{Ctx: context.Background()}

	var citiesCreated, nodesCreated int
	for _, sc := range file.Cities {
		if sc.Code == "" {
			log.Warn("Skipping city without code", "name", sc.Name)
			continue
		}
		city, err := cityRepo.GetByCode(dbc, sc.Code)
		if err != nil {
			log.Error("Failed to look up city", "code", sc.Code, "error", err)
			os.Exit(1)
		}
		if city == nil {
			rows, err := cityRepo.Create(dbc, []*types.City{{
				ID:   uuid.New(),
				Name: sc.Name,
				Code: sc.Code,
			}})
			if err != nil {
				log.Error("Failed to create city", "code", sc.Code, "error", err)
				os.Exit(1)
			}
			city = rows[0]
			citiesCreated++
		}

		for _, sn := range sc.Nodes {
			if sn.Code == "" {
				log.Warn("Skipping node without code", "city", sc.Code, "name", sn.Name)
				continue
			}
			node, err := nodeRepo.GetByCode(dbc, sn.Code)
			if err != nil {
				log.Error("Failed to look up node", "code", sn.Code, "error", err)
				os.Exit(1)
			}
			if node != nil {
				continue
			}
			kind := sn.Kind
			if kind == "" {
				kind = types.NodeKindTerminal
			}
			if _, err := nodeRepo.Create(dbc, []*types.TransitNode{{
				ID:     uuid.New(),
				CityID: city.ID,
				Name:   sn.Name,
				Code:   sn.Code,
				Kind:   kind,
			}}); err != nil {
				log.Error("Failed to create node", "code", sn.Code, "error", err)
				os.Exit(1)
			}
			nodesCreated++
		}
	}

	log.Info("Seed complete", "cities_created", citiesCreated, "nodes_created", nodesCreated)
}

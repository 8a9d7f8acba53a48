package db

import (
	"fmt"

	types "github.com/tollgrid/pathways-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Master data
		// =========================
		&types.City{},
		&types.TransitNode{},

		// =========================
		// Pathway aggregate
		// =========================
		&types.Pathway{},
		&types.PathwayOption{},
		&types.PathwayOptionToll{},
	)
}

// EnsureTransitIndexes adds the partial indexes AutoMigrate cannot express.
// The aggregate enforces these invariants transactionally; the indexes back
// them at the storage level against out-of-band writes.
func EnsureTransitIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	// At most one default option per pathway.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_pathway_option_single_default
		ON pathway_option(pathway_id)
		WHERE is_default AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_pathway_option_single_default: %w", err)
	}

	// A toll stop appears at most once per option.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_option_toll_node
		ON pathway_option_toll(pathway_option_id, node_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_option_toll_node: %w", err)
	}

	// Fast pathway listing per city pair.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pathway_city_pair_active
		ON pathway (origin_city_id, destination_city_id, active)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_pathway_city_pair_active: %w", err)
	}

	return nil
}

func EnsureForeignKeys(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"fk_transit_node_city_id", `
			ALTER TABLE "transit_node"
			ADD CONSTRAINT "fk_transit_node_city_id"
			FOREIGN KEY ("city_id") REFERENCES "city"("id")
			ON DELETE RESTRICT`},
		{"fk_pathway_origin_node_id", `
			ALTER TABLE "pathway"
			ADD CONSTRAINT "fk_pathway_origin_node_id"
			FOREIGN KEY ("origin_node_id") REFERENCES "transit_node"("id")
			ON DELETE RESTRICT`},
		{"fk_pathway_destination_node_id", `
			ALTER TABLE "pathway"
			ADD CONSTRAINT "fk_pathway_destination_node_id"
			FOREIGN KEY ("destination_node_id") REFERENCES "transit_node"("id")
			ON DELETE RESTRICT`},
		{"fk_pathway_option_pathway_id", `
			ALTER TABLE "pathway_option"
			ADD CONSTRAINT "fk_pathway_option_pathway_id"
			FOREIGN KEY ("pathway_id") REFERENCES "pathway"("id")
			ON DELETE CASCADE`},
		{"fk_option_toll_option_id", `
			ALTER TABLE "pathway_option_toll"
			ADD CONSTRAINT "fk_option_toll_option_id"
			FOREIGN KEY ("pathway_option_id") REFERENCES "pathway_option"("id")
			ON DELETE CASCADE`},
		{"fk_option_toll_node_id", `
			ALTER TABLE "pathway_option_toll"
			ADD CONSTRAINT "fk_option_toll_node_id"
			FOREIGN KEY ("node_id") REFERENCES "transit_node"("id")
			ON DELETE RESTRICT`},
	}
	for _, s := range stmts {
		exists, err := constraintExists(db, s.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("add %s: %w", s.name, err)
		}
	}
	return nil
}

func constraintExists(db *gorm.DB, name string) (bool, error) {
	var count int64
	err := db.Raw(
		`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, name,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("check constraint %s: %w", name, err)
	}
	return count > 0, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureTransitIndexes(s.db); err != nil {
		s.log.Error("Transit index migration failed", "error", err)
		return err
	}
	if err := EnsureForeignKeys(s.db); err != nil {
		s.log.Error("Foreign key migration failed", "error", err)
		return err
	}
	return nil
}

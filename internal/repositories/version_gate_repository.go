package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/evn/appgate/internal/models"
)

// ErrGateNotFound is returned when no gate row exists for a platform.
var ErrGateNotFound = errors.New("version gate not found")

type VersionGateRepository struct {
	DB *sql.DB
}

func NewVersionGateRepository(db *sql.DB) *VersionGateRepository {
	return &VersionGateRepository{DB: db}
}

// GetByPlatform returns the gate row for a platform.
func (r *VersionGateRepository) GetByPlatform(platform string) (*models.VersionGate, error) {
	query := `
        SELECT id, platform, latest_version, minimum_version, force_minimum_version,
               store_url, maintenance_mode, maintenance_message, release_notes,
               created_at, updated_at
        FROM version_gates
        WHERE platform = $1
    `

	var gate models.VersionGate
	err := r.DB.QueryRow(query, platform).Scan(
		&gate.ID,
		&gate.Platform,
		&gate.LatestVersion,
		&gate.MinimumVersion,
		&gate.ForceMinimumVersion,
		&gate.StoreURL,
		&gate.MaintenanceMode,
		&gate.MaintenanceMessage,
		&gate.ReleaseNotes,
		&gate.CreatedAt,
		&gate.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrGateNotFound, platform)
		}
		return nil, fmt.Errorf("failed to get gate: %w", err)
	}

	return &gate, nil
}

// List returns every configured gate ordered by platform.
func (r *VersionGateRepository) List() ([]models.VersionGate, error) {
	query := `
        SELECT id, platform, latest_version, minimum_version, force_minimum_version,
               store_url, maintenance_mode, maintenance_message, release_notes,
               created_at, updated_at
        FROM version_gates
        ORDER BY platform
    `

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query gates: %w", err)
	}
	defer rows.Close()

	var gates []models.VersionGate
	for rows.Next() {
		var gate models.VersionGate
		err := rows.Scan(
			&gate.ID,
			&gate.Platform,
			&gate.LatestVersion,
			&gate.MinimumVersion,
			&gate.ForceMinimumVersion,
			&gate.StoreURL,
			&gate.MaintenanceMode,
			&gate.MaintenanceMessage,
			&gate.ReleaseNotes,
			&gate.CreatedAt,
			&gate.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gate: %w", err)
		}
		gates = append(gates, gate)
	}

	return gates, rows.Err()
}

// Upsert inserts the gate for a platform or updates it in place. The ID and
// timestamps on the passed gate are filled from the database.
func (r *VersionGateRepository) Upsert(gate *models.VersionGate) error {
	query := `
        INSERT INTO version_gates
        (platform, latest_version, minimum_version, force_minimum_version,
         store_url, maintenance_mode, maintenance_message, release_notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (platform) DO UPDATE SET
            latest_version = EXCLUDED.latest_version,
            minimum_version = EXCLUDED.minimum_version,
            force_minimum_version = EXCLUDED.force_minimum_version,
            store_url = EXCLUDED.store_url,
            maintenance_mode = EXCLUDED.maintenance_mode,
            maintenance_message = EXCLUDED.maintenance_message,
            release_notes = EXCLUDED.release_notes,
            updated_at = now()
        RETURNING id, created_at, updated_at
    `

	err := r.DB.QueryRow(
		query,
		gate.Platform,
		gate.LatestVersion,
		gate.MinimumVersion,
		gate.ForceMinimumVersion,
		gate.StoreURL,
		gate.MaintenanceMode,
		gate.MaintenanceMessage,
		gate.ReleaseNotes,
	).Scan(&gate.ID, &gate.CreatedAt, &gate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert gate: %w", err)
	}

	return nil
}

// Delete removes the gate for a platform.
func (r *VersionGateRepository) Delete(platform string) error {
	result, err := r.DB.Exec(`DELETE FROM version_gates WHERE platform = $1`, platform)
	if err != nil {
		return fmt.Errorf("failed to delete gate: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrGateNotFound, platform)
	}

	return nil
}

// ReplaceAll swaps the whole gate table for the given set in one
// transaction. Used by rollout imports, which are all-or-nothing.
func (r *VersionGateRepository) ReplaceAll(gates []models.VersionGate) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM version_gates`); err != nil {
		return fmt.Errorf("failed to clear gates: %w", err)
	}

	query := `
        INSERT INTO version_gates
        (platform, latest_version, minimum_version, force_minimum_version,
         store_url, maintenance_mode, maintenance_message, release_notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `

	for i := range gates {
		gate := &gates[i]
		err := tx.QueryRow(
			query,
			gate.Platform,
			gate.LatestVersion,
			gate.MinimumVersion,
			gate.ForceMinimumVersion,
			gate.StoreURL,
			gate.MaintenanceMode,
			gate.MaintenanceMessage,
			gate.ReleaseNotes,
		).Scan(&gate.ID, &gate.CreatedAt, &gate.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert gate %s: %w", gate.Platform, err)
		}
	}

	return tx.Commit()
}

// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/stratofi/svm/internal/types"
)

// SaveVaultSnapshot saves a complete vault snapshot to the database.
func SaveVaultSnapshot(snapshot types.VaultSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	strategiesJSON, err := json.Marshal(snapshot.Strategies)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal strategies: %w", err)
	}
	supplyQueueJSON, err := json.Marshal(snapshot.SupplyQueue)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal supply_queue: %w", err)
	}
	withdrawQueueJSON, err := json.Marshal(snapshot.WithdrawQueue)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal withdraw_queue: %w", err)
	}

	query := `
		INSERT INTO vault_snapshots (
			snapshot_timestamp,
			total_assets, total_shares, idle_assets,
			entry_fee_bps, exit_fee_bps, min_idle_bps, fee_recipient,
			strategies, supply_queue, withdraw_queue
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.Timestamp,
		snapshot.TotalAssets.String(), snapshot.TotalShares.String(), snapshot.IdleAssets.String(),
		snapshot.EntryFeeBps, snapshot.ExitFeeBps, snapshot.MinIdleBps, snapshot.FeeRecipient,
		strategiesJSON, supplyQueueJSON, withdrawQueueJSON,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save vault snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Str("total_assets", snapshot.TotalAssets.String()).
		Str("total_shares", snapshot.TotalShares.String()).
		Msg("Vault snapshot saved to database")

	return snapshotID, nil
}

// scanSnapshot reads one snapshot row.
func scanSnapshot(row interface {
	Scan(dest ...interface{}) error
}) (types.VaultSnapshot, error) {
	var snapshot types.VaultSnapshot
	var totalAssets, totalShares, idleAssets string
	var strategiesJSON, supplyQueueJSON, withdrawQueueJSON []byte

	err := row.Scan(
		&snapshot.SnapshotID, &snapshot.Timestamp,
		&totalAssets, &totalShares, &idleAssets,
		&snapshot.EntryFeeBps, &snapshot.ExitFeeBps, &snapshot.MinIdleBps, &snapshot.FeeRecipient,
		&strategiesJSON, &supplyQueueJSON, &withdrawQueueJSON,
	)
	if err != nil {
		return types.VaultSnapshot{}, err
	}

	var ok bool
	if snapshot.TotalAssets, ok = sdkmath.NewIntFromString(totalAssets); !ok {
		return types.VaultSnapshot{}, fmt.Errorf("invalid total_assets value: %s", totalAssets)
	}
	if snapshot.TotalShares, ok = sdkmath.NewIntFromString(totalShares); !ok {
		return types.VaultSnapshot{}, fmt.Errorf("invalid total_shares value: %s", totalShares)
	}
	if snapshot.IdleAssets, ok = sdkmath.NewIntFromString(idleAssets); !ok {
		return types.VaultSnapshot{}, fmt.Errorf("invalid idle_assets value: %s", idleAssets)
	}

	if err := json.Unmarshal(strategiesJSON, &snapshot.Strategies); err != nil {
		return types.VaultSnapshot{}, fmt.Errorf("failed to unmarshal strategies: %w", err)
	}
	if err := json.Unmarshal(supplyQueueJSON, &snapshot.SupplyQueue); err != nil {
		return types.VaultSnapshot{}, fmt.Errorf("failed to unmarshal supply_queue: %w", err)
	}
	if err := json.Unmarshal(withdrawQueueJSON, &snapshot.WithdrawQueue); err != nil {
		return types.VaultSnapshot{}, fmt.Errorf("failed to unmarshal withdraw_queue: %w", err)
	}
	return snapshot, nil
}

const snapshotColumns = `
	snapshot_id, snapshot_timestamp,
	total_assets, total_shares, idle_assets,
	entry_fee_bps, exit_fee_bps, min_idle_bps, fee_recipient,
	strategies, supply_queue, withdraw_queue
`

// GetLatestVaultSnapshot returns the most recent snapshot, if any.
func GetLatestVaultSnapshot() (types.VaultSnapshot, error) {
	if DB == nil {
		return types.VaultSnapshot{}, fmt.Errorf("database not initialized")
	}

	query := `SELECT` + snapshotColumns + `
		FROM vault_snapshots ORDER BY snapshot_timestamp DESC LIMIT 1;`

	snapshot, err := scanSnapshot(DB.QueryRow(query))
	if err == sql.ErrNoRows {
		return types.VaultSnapshot{}, fmt.Errorf("no vault snapshots found")
	}
	if err != nil {
		return types.VaultSnapshot{}, fmt.Errorf("failed to load latest vault snapshot: %w", err)
	}
	return snapshot, nil
}

// GetRecentVaultSnapshots returns up to limit snapshots, newest first.
func GetRecentVaultSnapshots(limit int) ([]types.VaultSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT` + snapshotColumns + `
		FROM vault_snapshots ORDER BY snapshot_timestamp DESC LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vault snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.VaultSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vault snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

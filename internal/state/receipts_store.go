// ./internal/state/receipts_store.go
package state

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/stratofi/svm/internal/types"
)

// SaveOperationReceipt records the outcome of one vault operation.
func SaveOperationReceipt(receipt types.OperationReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO operation_receipts (
			operation_timestamp, operation_kind, caller, assets, shares, success, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING receipt_id;
	`

	var receiptID int64
	err := DB.QueryRow(
		query,
		receipt.Timestamp, string(receipt.Kind), receipt.Caller,
		receipt.Assets.String(), receipt.Shares.String(),
		receipt.Success, receipt.Message,
	).Scan(&receiptID)
	if err != nil {
		return 0, fmt.Errorf("failed to save operation receipt: %w", err)
	}

	log.Debug().
		Int64("receipt_id", receiptID).
		Str("kind", string(receipt.Kind)).
		Bool("success", receipt.Success).
		Msg("Operation receipt saved to database")

	return receiptID, nil
}

// GetRecentOperationReceipts returns up to limit receipts, newest first.
func GetRecentOperationReceipts(limit int) ([]types.OperationReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT receipt_id, operation_timestamp, operation_kind, caller, assets, shares, success, message
		FROM operation_receipts ORDER BY operation_timestamp DESC LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.OperationReceipt
	for rows.Next() {
		var receipt types.OperationReceipt
		var kind, assets, shares string
		if err := rows.Scan(
			&receipt.ReceiptID, &receipt.Timestamp, &kind, &receipt.Caller,
			&assets, &shares, &receipt.Success, &receipt.Message,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operation receipt: %w", err)
		}
		receipt.Kind = types.OperationKind(kind)

		var ok bool
		if receipt.Assets, ok = sdkmath.NewIntFromString(assets); !ok {
			return nil, fmt.Errorf("invalid assets value: %s", assets)
		}
		if receipt.Shares, ok = sdkmath.NewIntFromString(shares); !ok {
			return nil, fmt.Errorf("invalid shares value: %s", shares)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/models"
)

// ChangeCursor iterates the rows of a sync query. Both query shapes
// (incremental log read and full hierarchy scan) project the same seven
// columns, so a single scan path serves both.
type ChangeCursor struct {
	rows *sql.Rows
}

// Next advances the cursor. It returns false when the result set is
// exhausted or an iteration error occurred; check Err afterwards.
func (c *ChangeCursor) Next() bool {
	return c.rows.Next()
}

// Row scans the current row into a SyncRow. SourceKeys are cloned out of
// the driver's buffer so they stay valid after the next call.
func (c *ChangeCursor) Row() (models.SyncRow, error) {
	var row models.SyncRow
	var sourceKey, parentSourceKey []byte

	err := c.rows.Scan(
		&row.ChangeID,
		&sourceKey,
		&parentSourceKey,
		&row.ChangeType,
		&row.Flags,
		&row.MessageFlags,
		&row.OriginClientID,
	)
	if err != nil {
		return models.SyncRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	row.SourceKey = models.SourceKey(sourceKey).Clone()
	row.ParentSourceKey = models.SourceKey(parentSourceKey).Clone()

	return row, nil
}

// Err returns the error, if any, encountered during iteration.
func (c *ChangeCursor) Err() error {
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return nil
}

// Close releases the underlying result set.
func (c *ChangeCursor) Close() error {
	return c.rows.Close()
}

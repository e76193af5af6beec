// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against
// these values.
var (
	// ErrMessageNotFound is returned when a lookup targets a message
	// (by sourcekey) that does not exist in the hierarchy.
	ErrMessageNotFound = errors.New("message was not found")

	// ErrNoFolderChanges is returned when the change log holds no rows
	// at all for the requested folder. Callers normally treat this as
	// change id 0.
	ErrNoFolderChanges = errors.New("no change log entries for folder")

	// ErrSnapshotNotSaved is returned when a snapshot INSERT completes
	// without error but the number of affected rows is zero.
	ErrSnapshotNotSaved = errors.New("client snapshot was not saved")

	// ErrCounterNotFound is returned when the source key counter row is
	// missing from the settings table, which indicates an unmigrated or
	// corrupted installation.
	ErrCounterNotFound = errors.New("source key counter setting not found")
)

// Low-level database operation errors, returned (or wrapped) when a
// SQL-level operation fails before any domain logic can be applied.
var (
	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver
	// cannot start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrPreparingStatement is returned when a SQL statement cannot be
	// prepared.
	ErrPreparingStatement = errors.New("failed to prepare statement")

	// ErrExecutingStatement is returned when executing a prepared DML
	// statement (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a
	// single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)

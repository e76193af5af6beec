// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package ics

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// psql is the statement builder shared by all query creators; the store
// speaks PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Both query shapes project the same seven columns in the same order so
// one cursor scan path serves them all:
//
//	change id, sourcekey, parent sourcekey, change type, change flags,
//	message flags, origin client.

// applyItemKindFilter appends the common suffix shared by both creators:
// inclusion or exclusion of associated (hidden/system) items per the
// request flags. flagsColumn names the message-flag expression of the
// respective base query.
func applyItemKindFilter(query sq.SelectBuilder, flags models.SyncFlags, flagsColumn string) sq.SelectBuilder {
	if !flags.Has(models.SyncIncludeAssociated) {
		query = query.Where(sq.Expr(fmt.Sprintf("(%s IS NULL OR %s & %d = 0)",
			flagsColumn, flagsColumn, models.MsgFlagAssociated)))
	}

	if !flags.Has(models.SyncIncludeNormal) {
		query = query.Where(sq.Expr(fmt.Sprintf("(%s IS NULL OR %s & %d = %d)",
			flagsColumn, flagsColumn, models.MsgFlagAssociated, models.MsgFlagAssociated)))
	}

	return query
}

// IncrementalQueryCreator reads the tail of the change log: every record
// logged for the folder after the requested change id, except those the
// requesting client caused itself. Valid only when no filter is active
// now and none was active on the previous sync.
type IncrementalQueryCreator struct {
	folder    models.SourceKey
	clientID  uint64
	changeID  uint64
	syncFlags models.SyncFlags
}

// NewIncrementalQueryCreator constructs the log-tail query creator.
func NewIncrementalQueryCreator(folder models.SourceKey, clientID, changeID uint64, flags models.SyncFlags) *IncrementalQueryCreator {
	return &IncrementalQueryCreator{
		folder:    folder,
		clientID:  clientID,
		changeID:  changeID,
		syncFlags: flags,
	}
}

// BuildQuery implements QueryCreator.
func (c *IncrementalQueryCreator) BuildQuery() (string, []any, error) {
	query := psql.
		Select(
			"c.id",
			"c.sourcekey",
			"c.parent_sourcekey",
			"c.change_type",
			"c.flags",
			"COALESCE(m.flags, 0)",
			"c.origin_client",
		).
		From("changes AS c").
		LeftJoin("messages AS m ON m.sourcekey = c.sourcekey").
		Where(sq.Gt{"c.id": c.changeID}).
		Where(sq.Eq{"c.parent_sourcekey": []byte(c.folder)}).
		Where(sq.Gt{"c.change_type": uint32(models.ChangeIgnore)}).
		Where(sq.NotEq{"c.origin_client": c.clientID})

	if c.syncFlags.Has(models.SyncNoDeletions) {
		query = query.Where(sq.NotEq{"c.change_type": []uint32{
			uint32(models.ChangeSoftDelete),
			uint32(models.ChangeHardDelete),
		}})
	} else if c.syncFlags.Has(models.SyncNoSoftDeletions) {
		query = query.Where(sq.NotEq{"c.change_type": uint32(models.ChangeSoftDelete)})
	}

	if !c.syncFlags.Has(models.SyncReadState) {
		query = query.Where(sq.NotEq{"c.change_type": uint32(models.ChangeFlag)})
	}

	query = applyItemKindFilter(query, c.syncFlags, "m.flags")

	// The log id is the event order the client must apply.
	return query.OrderBy("c.id ASC").ToSql()
}

// FullQueryCreator scans every message currently in the folder,
// left-joined against the creation log entry so processors can tell
// whether a message post-dates the client's token. Used whenever the
// incremental log alone cannot be trusted: first syncs and filter
// transitions.
type FullQueryCreator struct {
	folder    models.SourceKey
	syncFlags models.SyncFlags

	// excludeOriginClient, when non-zero, drops messages whose creation
	// was logged by that client. Set for first syncs, where the client
	// already holds everything it created itself.
	excludeOriginClient uint64
}

// NewFullQueryCreator constructs the full-scan query creator.
func NewFullQueryCreator(folder models.SourceKey, flags models.SyncFlags, excludeOriginClient uint64) *FullQueryCreator {
	return &FullQueryCreator{
		folder:              folder,
		syncFlags:           flags,
		excludeOriginClient: excludeOriginClient,
	}
}

// BuildQuery implements QueryCreator.
func (c *FullQueryCreator) BuildQuery() (string, []any, error) {
	query := psql.
		Select(
			"COALESCE(c.id, 0)",
			"m.sourcekey",
			"m.parent_sourcekey",
			fmt.Sprintf("%d", uint32(models.ChangeNew)),
			"0",
			"m.flags",
			"COALESCE(c.origin_client, 0)",
		).
		From("messages AS m").
		LeftJoin(fmt.Sprintf(
			"changes AS c ON c.sourcekey = m.sourcekey AND c.parent_sourcekey = m.parent_sourcekey AND c.change_type = %d",
			uint32(models.ChangeNew))).
		Where(sq.Eq{"m.parent_sourcekey": []byte(c.folder)})

	if c.excludeOriginClient != 0 {
		query = query.Where(sq.Expr(
			"(c.origin_client IS NULL OR c.origin_client != ?)",
			c.excludeOriginClient))
	}

	query = applyItemKindFilter(query, c.syncFlags, "m.flags")

	// A full scan has no per-row change id to order by; reverse
	// creation order keeps newest messages first.
	return query.OrderBy("m.id DESC").ToSql()
}

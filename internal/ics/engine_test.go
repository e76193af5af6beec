package ics

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/MKhiriev/go-groupware-sync/models"
)

var syncColumns = []string{
	"id", "sourcekey", "parent_sourcekey", "change_type", "flags", "msg_flags", "origin_client",
}

type fakeSnapshotStorage struct {
	set         models.MessageSet
	generations []uint64

	loadErr error

	deletedAfter []uint64
	deletedGens  [][]uint64
	inserted     map[uint64]models.MessageSet
}

func (f *fakeSnapshotStorage) SyncedMessages(ctx context.Context, clientID, changeID uint64) (models.MessageSet, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.set == nil {
		return models.MessageSet{}, nil
	}
	return f.set, nil
}

func (f *fakeSnapshotStorage) SnapshotGenerations(ctx context.Context, clientID uint64) ([]uint64, error) {
	return f.generations, nil
}

func (f *fakeSnapshotStorage) DeleteSnapshotsAfter(ctx context.Context, clientID, changeID uint64) error {
	f.deletedAfter = append(f.deletedAfter, changeID)
	return nil
}

func (f *fakeSnapshotStorage) DeleteSnapshotGenerations(ctx context.Context, clientID uint64, changeIDs []uint64) error {
	f.deletedGens = append(f.deletedGens, changeIDs)
	return nil
}

func (f *fakeSnapshotStorage) InsertSnapshot(ctx context.Context, clientID, changeID uint64, set models.MessageSet) error {
	if f.inserted == nil {
		f.inserted = make(map[uint64]models.MessageSet)
	}
	f.inserted[changeID] = set
	return nil
}

type fakeMatcher struct {
	match func(sourceKey models.SourceKey) (bool, error)
}

func (f *fakeMatcher) Matches(ctx context.Context, sourceKey models.SourceKey, filter models.Filter) (bool, error) {
	if f.match == nil {
		return true, nil
	}
	return f.match(sourceKey)
}

func newTestEngine(t *testing.T, snapshots *fakeSnapshotStorage, matcher *fakeMatcher) (*Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	l := logger.Nop()
	changes := store.NewChangeRepository(store.NewDB(db, l), l)

	return NewEngine(changes, snapshots, matcher, l), mock, db
}

func expectMaxFolderChangeID(mock sqlmock.Sqlmock, maxID uint64) {
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(maxID))
}

func TestGetChanges_FirstSync(t *testing.T) {
	snapshots := &fakeSnapshotStorage{}
	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 7)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(5, []byte(keyA), []byte(testFolder), 1, 0, 0, 99).
			AddRow(6, []byte(keyB), []byte(testFolder), 1, 0, models.MsgFlagDeleted, 99))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		Flags:           models.SyncIncludeNormal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 7 {
		t.Errorf("expected token 7, got %d", resp.ChangeID)
	}
	if resp.Length != 1 {
		t.Fatalf("expected 1 event, got %d", resp.Length)
	}
	if resp.Events[0].ChangeType != models.ChangeNew || !resp.Events[0].SourceKey.Equal(keyA) {
		t.Errorf("expected new event for %s, got %+v", keyA, resp.Events[0])
	}
	if len(snapshots.inserted) != 0 {
		t.Error("expected no snapshot writes on an unfiltered sync")
	}
}

func TestGetChanges_FirstSyncEmptyFolder_MintsToken(t *testing.T) {
	snapshots := &fakeSnapshotStorage{}
	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 0)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns))
	mock.ExpectQuery("INSERT INTO changes").
		WithArgs([]byte(testFolder), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		Flags:           models.SyncIncludeNormal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 1 {
		t.Errorf("expected minted token 1, got %d", resp.ChangeID)
	}
	if resp.Length != 0 {
		t.Errorf("expected no events, got %d", resp.Length)
	}
}

func TestGetChanges_IncrementalPassThrough(t *testing.T) {
	snapshots := &fakeSnapshotStorage{}
	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 14)
	mock.ExpectQuery("FROM changes AS c").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(12, []byte(keyA), []byte(testFolder), uint32(models.ChangeModify), 0, 0, 5).
			AddRow(14, []byte(keyB), []byte(testFolder), uint32(models.ChangeHardDelete), 0, 0, 6))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 14 {
		t.Errorf("expected token 14, got %d", resp.ChangeID)
	}
	if resp.Length != 2 {
		t.Fatalf("expected 2 events, got %d", resp.Length)
	}
	if resp.Events[0].ChangeType != models.ChangeModify {
		t.Errorf("expected modify first, got %v", resp.Events[0].ChangeType)
	}
	if resp.Events[1].ChangeType != models.ChangeHardDelete {
		t.Errorf("expected hard delete second, got %v", resp.Events[1].ChangeType)
	}
}

func TestGetChanges_NoChanges_TokenHolds(t *testing.T) {
	snapshots := &fakeSnapshotStorage{}
	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 10)
	mock.ExpectQuery("FROM changes AS c").
		WillReturnRows(sqlmock.NewRows(syncColumns))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 10 {
		t.Errorf("expected token to hold at 10, got %d", resp.ChangeID)
	}
	if resp.Length != 0 {
		t.Errorf("expected no events, got %d", resp.Length)
	}

	// Generations a failed later sync may have written must be purged.
	if len(snapshots.deletedAfter) != 1 || snapshots.deletedAfter[0] != 10 {
		t.Errorf("expected snapshots after 10 to be purged, got %v", snapshots.deletedAfter)
	}
}

func TestGetChanges_RetryWithSameToken_IsRepeatable(t *testing.T) {
	for i := 0; i < 2; i++ {
		snapshots := &fakeSnapshotStorage{}
		engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})

		expectMaxFolderChangeID(mock, 14)
		mock.ExpectQuery("FROM changes AS c").
			WillReturnRows(sqlmock.NewRows(syncColumns).
				AddRow(12, []byte(keyA), []byte(testFolder), uint32(models.ChangeNew), 0, 0, 5))

		resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
			FolderSourceKey: testFolder,
			ChangeID:        10,
			Flags:           models.SyncIncludeNormal,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.ChangeID != 12 || resp.Length != 1 {
			t.Errorf("expected identical response on retry, got token %d with %d events", resp.ChangeID, resp.Length)
		}

		db.Close()
	}
}

func TestGetChanges_FilterTransition(t *testing.T) {
	snapshots := &fakeSnapshotStorage{}
	matcher := &fakeMatcher{match: func(key models.SourceKey) (bool, error) {
		return !key.Equal(keyA), nil
	}}
	engine, mock, db := newTestEngine(t, snapshots, matcher)
	defer db.Close()

	expectMaxFolderChangeID(mock, 12)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			// Pre-token, now filtered out: must be retracted.
			AddRow(4, []byte(keyA), []byte(testFolder), 1, 0, 0, 3).
			// Post-token, matching: must be delivered.
			AddRow(12, []byte(keyB), []byte(testFolder), 1, 0, 0, 3).
			// Pre-token, matching: already on the client.
			AddRow(8, []byte(keyC), []byte(testFolder), 1, 0, 0, 3))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
		Filter:          models.Filter(`{"tag":"category","op":"eq","value":"work"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 12 {
		t.Errorf("expected token 12, got %d", resp.ChangeID)
	}
	if resp.Length != 2 {
		t.Fatalf("expected 2 events, got %d", resp.Length)
	}
	if resp.Events[0].ChangeType != models.ChangeHardDelete || !resp.Events[0].SourceKey.Equal(keyA) {
		t.Errorf("expected retraction of %s, got %+v", keyA, resp.Events[0])
	}
	if resp.Events[1].ChangeType != models.ChangeNew || !resp.Events[1].SourceKey.Equal(keyB) {
		t.Errorf("expected delivery of %s, got %+v", keyB, resp.Events[1])
	}

	set, ok := snapshots.inserted[12]
	if !ok {
		t.Fatalf("expected a snapshot tagged with the new token, got %v", snapshots.inserted)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 snapshot entries, got %d", len(set))
	}
	for _, key := range []models.SourceKey{keyB, keyC} {
		if _, found := set.Lookup(key); !found {
			t.Errorf("expected %s in the new snapshot", key)
		}
	}
}

func TestGetChanges_FilteredEmptyView_StoresSentinel(t *testing.T) {
	snapshots := &fakeSnapshotStorage{}
	matcher := &fakeMatcher{match: func(models.SourceKey) (bool, error) {
		return false, nil
	}}
	engine, mock, db := newTestEngine(t, snapshots, matcher)
	defer db.Close()

	expectMaxFolderChangeID(mock, 10)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(4, []byte(keyA), []byte(testFolder), 1, 0, 0, 3))
	mock.ExpectQuery("INSERT INTO changes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(15))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
		Filter:          models.Filter(`{"tag":"category","op":"eq","value":"work"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 15 {
		t.Errorf("expected minted token 15, got %d", resp.ChangeID)
	}
	if resp.Length != 1 || resp.Events[0].ChangeType != models.ChangeHardDelete {
		t.Fatalf("expected a single retraction, got %+v", resp.Events)
	}

	set, ok := snapshots.inserted[15]
	if !ok {
		t.Fatalf("expected a snapshot tagged with the minted token, got %v", snapshots.inserted)
	}
	if !set.IsEffectivelyEmpty() {
		t.Errorf("expected only the sentinel entry, got %v", set)
	}
	if _, found := set.Lookup(models.SentinelSourceKey); !found {
		t.Error("expected the sentinel entry to be stored")
	}
}

func TestGetChanges_SentinelSnapshot_UnfilteredRedeliversHiddenMessages(t *testing.T) {
	set := models.MessageSet{}
	set.Add(models.SentinelSourceKey, models.AuxMessageData{ParentSourceKey: testFolder})
	snapshots := &fakeSnapshotStorage{set: set, generations: []uint64{10}}

	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 12)
	// The stored marker means the previous filtered view matched
	// nothing. Dropping the filter must run a full folder scan; the
	// change-log tail would skip every message older than the token.
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(4, []byte(keyA), []byte(testFolder), 1, 0, 0, 3))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 12 {
		t.Errorf("expected token 12, got %d", resp.ChangeID)
	}
	if resp.Length != 1 || resp.Events[0].ChangeType != models.ChangeNew || !resp.Events[0].SourceKey.Equal(keyA) {
		t.Fatalf("expected redelivery of %s as new, got %+v", keyA, resp.Events)
	}
	if len(snapshots.inserted) != 0 {
		t.Errorf("unfiltered sync must not store a snapshot, got %v", snapshots.inserted)
	}
}

func TestGetChanges_SentinelSnapshot_FilteredMatchReplacesSentinel(t *testing.T) {
	set := models.MessageSet{}
	set.Add(models.SentinelSourceKey, models.AuxMessageData{ParentSourceKey: testFolder})
	snapshots := &fakeSnapshotStorage{set: set, generations: []uint64{10}}

	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 12)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(4, []byte(keyA), []byte(testFolder), 1, 0, 0, 3))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
		Filter:          models.Filter(`{"tag":"category","op":"eq","value":"work"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Length != 1 || resp.Events[0].ChangeType != models.ChangeNew || !resp.Events[0].SourceKey.Equal(keyA) {
		t.Fatalf("expected delivery of %s, got %+v", keyA, resp.Events)
	}

	stored, ok := snapshots.inserted[resp.ChangeID]
	if !ok {
		t.Fatalf("expected a snapshot tagged with the new token, got %v", snapshots.inserted)
	}
	if _, found := stored.Lookup(keyA); !found {
		t.Errorf("expected %s in the new snapshot, got %v", keyA, stored)
	}
	if _, found := stored.Lookup(models.SentinelSourceKey); found {
		t.Error("sentinel must be gone once the view holds a real message")
	}
}

func TestGetChanges_LegacyReconciliation(t *testing.T) {
	set := models.MessageSet{}
	set.Add(keyA, models.AuxMessageData{ParentSourceKey: testFolder, ChangeTypes: models.ChangeModify.Mask()})
	set.Add(keyC, models.AuxMessageData{ParentSourceKey: testFolder})
	snapshots := &fakeSnapshotStorage{set: set, generations: []uint64{2, 5, 8, 10}}

	engine, mock, db := newTestEngine(t, snapshots, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 14)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			// Known and modified since the snapshot.
			AddRow(12, []byte(keyA), []byte(testFolder), 1, 0, 0, 3).
			// Unknown live message from another client.
			AddRow(13, []byte(keyB), []byte(testFolder), 1, 0, 0, 3))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
		Filter:          models.Filter(`{"tag":"category","op":"eq","value":"work"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ChangeID != 14 {
		t.Errorf("expected token to advance to folder max 14, got %d", resp.ChangeID)
	}
	if resp.Length != 3 {
		t.Fatalf("expected 3 events, got %d", resp.Length)
	}

	byKey := map[string]models.ChangeType{}
	for _, ev := range resp.Events {
		byKey[string(ev.SourceKey)] = ev.ChangeType
	}
	if byKey[string(keyA)] != models.ChangeModify {
		t.Errorf("expected modify for %s, got %v", keyA, byKey[string(keyA)])
	}
	if byKey[string(keyB)] != models.ChangeNew {
		t.Errorf("expected new for %s, got %v", keyB, byKey[string(keyB)])
	}
	if byKey[string(keyC)] != models.ChangeHardDelete {
		t.Errorf("expected residual retraction for %s, got %v", keyC, byKey[string(keyC)])
	}

	// Keep the token generation plus two anchors, drop the oldest.
	if len(snapshots.deletedGens) != 1 {
		t.Fatalf("expected one generation prune, got %v", snapshots.deletedGens)
	}
	if got := snapshots.deletedGens[0]; len(got) != 1 || got[0] != 2 {
		t.Errorf("expected generation 2 to be pruned, got %v", got)
	}

	if _, ok := snapshots.inserted[14]; !ok {
		t.Errorf("expected a snapshot tagged with the new token, got %v", snapshots.inserted)
	}
}

func TestGetChanges_StorageFailure(t *testing.T) {
	engine, mock, db := newTestEngine(t, &fakeSnapshotStorage{}, &fakeMatcher{})
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\)`).
		WillReturnError(errors.New("connection lost"))

	_, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		Flags:           models.SyncIncludeNormal,
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestGetChanges_FilterEvaluationFailure(t *testing.T) {
	matcher := &fakeMatcher{match: func(models.SourceKey) (bool, error) {
		return false, errors.New("malformed filter document")
	}}
	engine, mock, db := newTestEngine(t, &fakeSnapshotStorage{}, matcher)
	defer db.Close()

	expectMaxFolderChangeID(mock, 10)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(4, []byte(keyA), []byte(testFolder), 1, 0, 0, 3))

	_, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
		Filter:          models.Filter(`{"tag":"category"`),
	})
	if !errors.Is(err, ErrFilterEval) {
		t.Fatalf("expected ErrFilterEval, got %v", err)
	}
}

func TestGetChanges_MissingFilterTargetIsNonMatch(t *testing.T) {
	matcher := &fakeMatcher{match: func(models.SourceKey) (bool, error) {
		return false, store.ErrRestrictionTarget
	}}
	engine, mock, db := newTestEngine(t, &fakeSnapshotStorage{}, matcher)
	defer db.Close()

	expectMaxFolderChangeID(mock, 10)
	mock.ExpectQuery("FROM messages AS m").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			// Post-token and gone from the hierarchy: nothing to send.
			AddRow(12, []byte(keyA), []byte(testFolder), 1, 0, 0, 3))

	resp, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
		Filter:          models.Filter(`{"tag":"category","op":"eq","value":"work"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Length != 0 {
		t.Errorf("expected no events for a vanished target, got %d", resp.Length)
	}
	if resp.ChangeID != 12 {
		t.Errorf("expected token 12, got %d", resp.ChangeID)
	}
}

func TestGetChanges_CorruptRowAborts(t *testing.T) {
	engine, mock, db := newTestEngine(t, &fakeSnapshotStorage{}, &fakeMatcher{})
	defer db.Close()

	expectMaxFolderChangeID(mock, 10)
	mock.ExpectQuery("FROM changes AS c").
		WillReturnRows(sqlmock.NewRows(syncColumns).
			AddRow(12, []byte{}, []byte(testFolder), 1, 0, 0, 3))

	_, err := engine.GetChanges(context.Background(), 7, models.SyncRequest{
		FolderSourceKey: testFolder,
		ChangeID:        10,
		Flags:           models.SyncIncludeNormal,
	})
	if !errors.Is(err, ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
}

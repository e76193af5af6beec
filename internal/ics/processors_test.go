package ics

import (
	"testing"

	"github.com/MKhiriev/go-groupware-sync/models"
)

var (
	testFolder = models.SourceKey{0xF0, 0x01}
	keyA       = models.SourceKey{0xAA, 0x01}
	keyB       = models.SourceKey{0xAA, 0x02}
	keyC       = models.SourceKey{0xAA, 0x03}
)

func TestFirstSyncProcessor(t *testing.T) {
	tests := []struct {
		name string
		row  models.SyncRow
		want models.ChangeType
	}{
		{
			name: "live message becomes new",
			row:  models.SyncRow{ChangeID: 5, SourceKey: keyA, ParentSourceKey: testFolder},
			want: models.ChangeNew,
		},
		{
			name: "deleted message is skipped",
			row:  models.SyncRow{ChangeID: 6, SourceKey: keyB, MessageFlags: models.MsgFlagDeleted},
			want: models.ChangeIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFirstSyncProcessor(9)

			got, _, err := p.ProcessAccepted(tt.row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFirstSyncProcessor_RejectedIsIgnored(t *testing.T) {
	p := NewFirstSyncProcessor(9)

	got, err := p.ProcessRejected(models.SyncRow{ChangeID: 5, SourceKey: keyA})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.ChangeIgnore {
		t.Errorf("expected ignore, got %v", got)
	}
}

func TestFirstSyncProcessor_MaxChangeIDIsFolderMax(t *testing.T) {
	p := NewFirstSyncProcessor(9)

	if _, _, err := p.ProcessAccepted(models.SyncRow{ChangeID: 3, SourceKey: keyA}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.MaxChangeID(); got != 9 {
		t.Errorf("expected max change id 9, got %d", got)
	}
	if res := p.ResidualMessages(); len(res) != 0 {
		t.Errorf("expected no residuals, got %d", len(res))
	}
}

func TestNonLegacyIncrementalProcessor_PassesRowsThrough(t *testing.T) {
	p := NewNonLegacyIncrementalProcessor(10)

	change, flags, err := p.ProcessAccepted(models.SyncRow{
		ChangeID:   12,
		SourceKey:  keyA,
		ChangeType: models.ChangeFlag,
		Flags:      0x1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != models.ChangeFlag {
		t.Errorf("expected flag change, got %v", change)
	}
	if flags != 0x1 {
		t.Errorf("expected flags 0x1, got %#x", flags)
	}
	if got := p.MaxChangeID(); got != 12 {
		t.Errorf("expected max change id 12, got %d", got)
	}
}

func TestNonLegacyIncrementalProcessor_MaxNeverRegresses(t *testing.T) {
	p := NewNonLegacyIncrementalProcessor(10)

	if got := p.MaxChangeID(); got != 10 {
		t.Errorf("expected max change id to stay at token 10, got %d", got)
	}

	if _, _, err := p.ProcessAccepted(models.SyncRow{ChangeID: 11, SourceKey: keyA, ChangeType: models.ChangeModify}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.MaxChangeID(); got != 11 {
		t.Errorf("expected max change id 11, got %d", got)
	}
}

func TestNonLegacyFullProcessor_Accepted(t *testing.T) {
	const clientID, tokenID = 7, 10

	tests := []struct {
		name string
		row  models.SyncRow
		want models.ChangeType
	}{
		{
			name: "post-token live message is delivered",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyA, OriginClientID: 3},
			want: models.ChangeNew,
		},
		{
			name: "post-token own message is suppressed",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyA, OriginClientID: clientID},
			want: models.ChangeIgnore,
		},
		{
			name: "pre-token live message already on client",
			row:  models.SyncRow{ChangeID: 8, SourceKey: keyA, OriginClientID: 3},
			want: models.ChangeIgnore,
		},
		{
			name: "pre-token deleted message is retracted",
			row:  models.SyncRow{ChangeID: 8, SourceKey: keyA, MessageFlags: models.MsgFlagDeleted},
			want: models.ChangeHardDelete,
		},
		{
			name: "post-token deleted message never reached client",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyA, MessageFlags: models.MsgFlagDeleted},
			want: models.ChangeIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewNonLegacyFullProcessor(clientID, tokenID)

			got, _, err := p.ProcessAccepted(tt.row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNonLegacyFullProcessor_Rejected(t *testing.T) {
	const clientID, tokenID = 7, 10

	tests := []struct {
		name string
		row  models.SyncRow
		want models.ChangeType
	}{
		{
			name: "pre-token rejected message is retracted",
			row:  models.SyncRow{ChangeID: 8, SourceKey: keyA},
			want: models.ChangeHardDelete,
		},
		{
			name: "post-token rejected message never reached client",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyA},
			want: models.ChangeIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewNonLegacyFullProcessor(clientID, tokenID)

			got, err := p.ProcessRejected(tt.row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNonLegacyFullProcessor_MaxNeverRegresses(t *testing.T) {
	p := NewNonLegacyFullProcessor(7, 10)

	if _, _, err := p.ProcessAccepted(models.SyncRow{ChangeID: 4, SourceKey: keyA}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.MaxChangeID(); got != 10 {
		t.Errorf("expected max change id to stay at token 10, got %d", got)
	}
}

func legacySnapshot() models.MessageSet {
	set := models.MessageSet{}
	set.Add(keyA, models.AuxMessageData{ParentSourceKey: testFolder, ChangeTypes: models.ChangeModify.Mask()})
	set.Add(keyB, models.AuxMessageData{ParentSourceKey: testFolder, ChangeTypes: models.ChangeFlag.Mask(), Flags: 0x1})
	set.Add(keyC, models.AuxMessageData{ParentSourceKey: testFolder})
	return set
}

func TestLegacyProcessor_Accepted(t *testing.T) {
	const clientID, tokenID, folderMax = 7, 10, 14

	tests := []struct {
		name      string
		row       models.SyncRow
		want      models.ChangeType
		wantFlags uint32
	}{
		{
			name: "unknown live message is new",
			row:  models.SyncRow{ChangeID: 12, SourceKey: models.SourceKey{0xBB}, OriginClientID: 3},
			want: models.ChangeNew,
		},
		{
			name: "unknown own message is suppressed",
			row:  models.SyncRow{ChangeID: 12, SourceKey: models.SourceKey{0xBB}, OriginClientID: clientID},
			want: models.ChangeIgnore,
		},
		{
			name: "unknown deleted message is skipped",
			row:  models.SyncRow{ChangeID: 12, SourceKey: models.SourceKey{0xBB}, MessageFlags: models.MsgFlagDeleted},
			want: models.ChangeIgnore,
		},
		{
			name: "known modified message is modify",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyA},
			want: models.ChangeModify,
		},
		{
			name:      "known flag-changed message carries the flags",
			row:       models.SyncRow{ChangeID: 12, SourceKey: keyB},
			want:      models.ChangeFlag,
			wantFlags: 0x1,
		},
		{
			name: "known unchanged message is skipped",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyC},
			want: models.ChangeIgnore,
		},
		{
			name: "known deleted message is retracted",
			row:  models.SyncRow{ChangeID: 12, SourceKey: keyA, MessageFlags: models.MsgFlagDeleted},
			want: models.ChangeHardDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewLegacyProcessor(clientID, tokenID, folderMax, legacySnapshot())

			got, flags, err := p.ProcessAccepted(tt.row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if flags != tt.wantFlags {
				t.Errorf("expected flags %#x, got %#x", tt.wantFlags, flags)
			}

			if _, known := p.snapshot.Lookup(tt.row.SourceKey); known {
				t.Error("expected processed row to be consumed from the snapshot")
			}
		})
	}
}

func TestLegacyProcessor_Rejected(t *testing.T) {
	const clientID, tokenID, folderMax = 7, 10, 14

	p := NewLegacyProcessor(clientID, tokenID, folderMax, legacySnapshot())

	got, err := p.ProcessRejected(models.SyncRow{ChangeID: 12, SourceKey: keyA})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.ChangeHardDelete {
		t.Errorf("expected known rejected message to be retracted, got %v", got)
	}

	got, err = p.ProcessRejected(models.SyncRow{ChangeID: 12, SourceKey: models.SourceKey{0xBB}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.ChangeIgnore {
		t.Errorf("expected unknown rejected message to be ignored, got %v", got)
	}
}

func TestLegacyProcessor_TokenHoldsWithoutChanges(t *testing.T) {
	const clientID, tokenID, folderMax = 7, 10, 14

	set := models.MessageSet{}
	set.Add(keyC, models.AuxMessageData{ParentSourceKey: testFolder})
	p := NewLegacyProcessor(clientID, tokenID, folderMax, set)

	// The only known message is unchanged: no event, token must hold.
	if _, _, err := p.ProcessAccepted(models.SyncRow{ChangeID: 12, SourceKey: keyC}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res := p.ResidualMessages(); len(res) != 0 {
		t.Fatalf("expected no residuals, got %d", len(res))
	}
	if got := p.MaxChangeID(); got != tokenID {
		t.Errorf("expected token to hold at %d, got %d", tokenID, got)
	}
}

func TestLegacyProcessor_TokenAdvancesOnChange(t *testing.T) {
	const clientID, tokenID, folderMax = 7, 10, 14

	p := NewLegacyProcessor(clientID, tokenID, folderMax, legacySnapshot())

	if _, _, err := p.ProcessAccepted(models.SyncRow{ChangeID: 12, SourceKey: keyA}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.MaxChangeID(); got != folderMax {
		t.Errorf("expected token to advance to folder max %d, got %d", folderMax, got)
	}
}

func TestLegacyProcessor_ResidualsAreRetracted(t *testing.T) {
	const clientID, tokenID, folderMax = 7, 10, 14

	p := NewLegacyProcessor(clientID, tokenID, folderMax, legacySnapshot())

	// Only keyA is still in the folder.
	if _, _, err := p.ProcessAccepted(models.SyncRow{ChangeID: 12, SourceKey: keyA}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	residuals := p.ResidualMessages()
	if len(residuals) != 2 {
		t.Fatalf("expected 2 residuals, got %d", len(residuals))
	}
	for _, key := range []models.SourceKey{keyB, keyC} {
		if _, ok := residuals.Lookup(key); !ok {
			t.Errorf("expected %s among residuals", key)
		}
	}
}

func TestLegacyProcessor_SentinelNeverSurfaces(t *testing.T) {
	const clientID, tokenID, folderMax = 7, 10, 14

	set := models.MessageSet{}
	set.Add(models.SentinelSourceKey, models.AuxMessageData{ParentSourceKey: testFolder})
	p := NewLegacyProcessor(clientID, tokenID, folderMax, set)

	if res := p.ResidualMessages(); len(res) != 0 {
		t.Fatalf("expected sentinel to be dropped, got %d residuals", len(res))
	}
	if got := p.MaxChangeID(); got != tokenID {
		t.Errorf("expected token to hold at %d, got %d", tokenID, got)
	}
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

type stubMessageRepo struct {
	msg models.Message
	err error
}

func (s *stubMessageRepo) UpsertMessage(_ context.Context, _ models.Message) error { return nil }
func (s *stubMessageRepo) SetMessageFlags(_ context.Context, _ models.SourceKey, _ uint32) error {
	return nil
}
func (s *stubMessageRepo) DeleteMessage(_ context.Context, _ models.SourceKey) error { return nil }
func (s *stubMessageRepo) GetMessage(_ context.Context, _ models.SourceKey) (models.Message, error) {
	return s.msg, s.err
}

func TestRestrictionMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		msg    models.Message
		want   bool
	}{
		{
			name:   "category equals",
			filter: `{"tag":"category","op":"eq","value":"mail"}`,
			msg:    models.Message{Category: "mail"},
			want:   true,
		},
		{
			name:   "category differs",
			filter: `{"tag":"category","op":"eq","value":"mail"}`,
			msg:    models.Message{Category: "calendar"},
			want:   false,
		},
		{
			name:   "default op is equality",
			filter: `{"tag":"category","value":"mail"}`,
			msg:    models.Message{Category: "mail"},
			want:   true,
		},
		{
			name:   "negated comparison",
			filter: `{"tag":"category","op":"ne","value":"mail"}`,
			msg:    models.Message{Category: "calendar"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewRestrictionEvaluator(&stubMessageRepo{msg: tt.msg}, logger.Nop())

			got, err := e.Matches(context.Background(), testKey, models.Filter(tt.filter))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected match=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestRestrictionMatches_TargetGone(t *testing.T) {
	e := NewRestrictionEvaluator(&stubMessageRepo{err: ErrMessageNotFound}, logger.Nop())

	_, err := e.Matches(context.Background(), testKey, models.Filter(`{"tag":"category","value":"mail"}`))
	if !errors.Is(err, ErrRestrictionTarget) {
		t.Fatalf("expected ErrRestrictionTarget, got %v", err)
	}
}

func TestRestrictionMatches_BadDocument(t *testing.T) {
	e := NewRestrictionEvaluator(&stubMessageRepo{}, logger.Nop())

	if _, err := e.Matches(context.Background(), testKey, models.Filter(`{`)); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestRestrictionMatches_UnsupportedTag(t *testing.T) {
	e := NewRestrictionEvaluator(&stubMessageRepo{}, logger.Nop())

	if _, err := e.Matches(context.Background(), testKey, models.Filter(`{"tag":"subject","value":"x"}`)); err == nil {
		t.Fatal("expected error for unsupported tag")
	}
}

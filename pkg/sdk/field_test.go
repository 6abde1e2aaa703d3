package taginput

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/taginput/internal/domain"
	"github.com/kailas-cloud/taginput/internal/domain/field"
	"github.com/kailas-cloud/taginput/internal/domain/record"
)

func newMockField(t *testing.T) *mockFieldUC {
	t.Helper()
	f, err := field.New("tags", "Tags", "", "post")
	if err != nil {
		t.Fatal(err)
	}
	return &mockFieldUC{field: f}
}

func TestFieldService_Suggest(t *testing.T) {
	mock := newMockField(t)
	mock.suggestFn = func(_ context.Context, query string) ([]string, error) {
		if query != "go" {
			t.Errorf("query = %q, want go", query)
		}
		return []string{"go", "golang"}, nil
	}

	svc := &FieldService{svc: mock}
	got, err := svc.Suggest(context.Background(), "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1] != "golang" {
		t.Errorf("Suggest = %v", got)
	}
}

func TestFieldService_Suggest_Error(t *testing.T) {
	mock := newMockField(t)
	mock.suggestFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, domain.ErrMisconfigured
	}

	svc := &FieldService{svc: mock}
	if _, err := svc.Suggest(context.Background(), ""); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("error = %v, want ErrMisconfigured", err)
	}
}

func TestFieldService_Mode(t *testing.T) {
	mock := newMockField(t)
	mock.modeFn = func(_ context.Context) (record.Mode, error) {
		return record.ModeScalar, nil
	}

	svc := &FieldService{svc: mock}
	m, err := svc.Mode(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != ModeScalar {
		t.Errorf("Mode = %q, want scalar", m)
	}
}

func TestFieldService_Load(t *testing.T) {
	mock := newMockField(t)
	mock.loadFn = func(_ context.Context, id string) (record.Record, string, error) {
		return record.Reconstruct("post", id, map[string]string{"Title": "Hello"}), "go chi", nil
	}

	svc := &FieldService{svc: mock}
	rec, err := svc.Load(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "p1" || rec.Type != "post" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Value != "go chi" {
		t.Errorf("Value = %q, want %q", rec.Value, "go chi")
	}
	if rec.Attributes["Title"] != "Hello" {
		t.Errorf("Attributes = %v", rec.Attributes)
	}
}

func TestFieldService_Load_NotFound(t *testing.T) {
	mock := newMockField(t)
	mock.loadFn = func(_ context.Context, _ string) (record.Record, string, error) {
		return record.Record{}, "", domain.ErrRecordNotFound
	}

	svc := &FieldService{svc: mock}
	if _, err := svc.Load(context.Background(), "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestFieldService_Submit(t *testing.T) {
	mock := newMockField(t)
	mock.submitFn = func(_ context.Context, id, raw string, submitted bool) (record.Record, string, error) {
		if id != "" || raw != "go  chi" || !submitted {
			t.Errorf("submit(%q, %q, %v)", id, raw, submitted)
		}
		return record.Reconstruct("post", "new-id", nil), "go chi", nil
	}

	svc := &FieldService{svc: mock}
	rec, err := svc.Submit(context.Background(), "", "go  chi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "new-id" || rec.Value != "go chi" {
		t.Errorf("record = %+v", rec)
	}
}

func TestFieldService_Touch(t *testing.T) {
	mock := newMockField(t)
	mock.submitFn = func(_ context.Context, id, raw string, submitted bool) (record.Record, string, error) {
		if id != "p1" || raw != "" || submitted {
			t.Errorf("submit(%q, %q, %v)", id, raw, submitted)
		}
		return record.Reconstruct("post", id, nil), "kept", nil
	}

	svc := &FieldService{svc: mock}
	rec, err := svc.Touch(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Value != "kept" {
		t.Errorf("Value = %q, want kept", rec.Value)
	}
}

func TestFieldService_Submit_Error(t *testing.T) {
	mock := newMockField(t)
	mock.submitFn = func(_ context.Context, _, _ string, _ bool) (record.Record, string, error) {
		return record.Record{}, "", errors.New("db down")
	}

	svc := &FieldService{svc: mock}
	if _, err := svc.Submit(context.Background(), "p1", "go"); err == nil {
		t.Fatal("expected error")
	}
}

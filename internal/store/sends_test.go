package store

import (
	"context"
	"errors"
	"testing"
)

func TestSends_RecordMarkList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	first, err := s.RecordSend(ctx, map[string]any{"1": "ab"})
	if err != nil {
		t.Fatalf("RecordSend: %v", err)
	}
	if first.ID == "" || first.Status != SendPending {
		t.Fatalf("unexpected record: %+v", first)
	}
	second, err := s.RecordSend(ctx, map[string]any{"2": "main"})
	if err != nil {
		t.Fatalf("RecordSend: %v", err)
	}

	if err := s.MarkSend(ctx, first.ID, SendAcked, ""); err != nil {
		t.Fatalf("MarkSend(acked): %v", err)
	}
	if err := s.MarkSend(ctx, second.ID, SendRejected, "  device busy "); err != nil {
		t.Fatalf("MarkSend(rejected): %v", err)
	}
	// First outcome wins.
	if err := s.MarkSend(ctx, first.ID, SendRejected, "late"); err != nil {
		t.Fatalf("MarkSend(again): %v", err)
	}

	got, err := s.ListSends(ctx, 0)
	if err != nil {
		t.Fatalf("ListSends: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sends; got %d", len(got))
	}
	byID := map[string]SendRecord{}
	for _, r := range got {
		byID[r.ID] = r
	}
	if byID[first.ID].Status != SendAcked {
		t.Fatalf("first status = %q; want acked", byID[first.ID].Status)
	}
	if r := byID[second.ID]; r.Status != SendRejected || r.Reason != "device busy" {
		t.Fatalf("second = %+v", r)
	}
	if string(byID[first.ID].Payload) != `{"1":"ab"}` {
		t.Fatalf("payload = %s", byID[first.ID].Payload)
	}

	limited, err := s.ListSends(ctx, 1)
	if err != nil {
		t.Fatalf("ListSends(1): %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 send; got %d", len(limited))
	}
}

func TestMarkSend_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	if err := s.MarkSend(ctx, "nope", SendStatus("lost"), ""); err == nil {
		t.Fatalf("expected invalid status error")
	}
	err := s.MarkSend(ctx, "nope", SendAcked, "")
	var nf *SendNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected SendNotFoundError; got %v", err)
	}
}

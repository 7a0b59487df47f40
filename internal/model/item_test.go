package model

import (
	"testing"
	"time"

	"github.com/sporetrack/sporetrack/internal/barcode"
)

var testTime = time.Date(2025, time.July, 8, 9, 30, 0, 0, time.UTC)

func TestNewItemRoundTripsCode(t *testing.T) {
	code, err := barcode.Parse("CHNU_29_02_24_G9_0042")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	item := NewItem(code, "Shelf-A", testTime)

	if item.Barcode != "CHNU_29_02_24_G9_0042" {
		t.Errorf("expected canonical barcode, got %s", item.Barcode)
	}
	if item.Status != StatusInStock || len(item.History) != 0 {
		t.Errorf("expected fresh in-stock item, got %s with %d entries", item.Status, len(item.History))
	}
	if got := item.Code(); got != code {
		t.Errorf("expected Code() %+v, got %+v", code, got)
	}
}

func TestRecord(t *testing.T) {
	code, err := barcode.Parse("PIPI_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	item := NewItem(code, "Shelf-A", testTime)

	steps := []struct {
		action   string
		location string
		status   string
		from     string
	}{
		{ActionCreate, "Shelf-A", StatusInStock, ""},
		{ActionMove, "Shelf-B", StatusInStock, "Shelf-A"},
		{ActionCheckOut, "Shelf-B", StatusCheckedOut, "Shelf-B"},
		{ActionCheckIn, "Shelf-C", StatusInStock, "Shelf-B"},
	}
	for i, s := range steps {
		at := testTime.Add(time.Duration(i) * time.Minute)
		entry := item.Record(s.action, s.location, s.status, at)
		if entry.Seq != i+1 {
			t.Errorf("step %d: expected seq %d, got %d", i, i+1, entry.Seq)
		}
		if entry.FromLocation != s.from || entry.ToLocation != s.location {
			t.Errorf("step %d: expected %q -> %q, got %q -> %q", i, s.from, s.location, entry.FromLocation, entry.ToLocation)
		}
		if item.Location != s.location || item.Status != s.status || !item.UpdatedAt.Equal(at) {
			t.Errorf("step %d: item not updated: %+v", i, item)
		}
	}
	if len(item.History) != len(steps) {
		t.Errorf("expected %d entries, got %d", len(steps), len(item.History))
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusInStock, StatusCheckedOut} {
		if !ValidStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	for _, s := range []string{"", "in_stock", "LOST"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

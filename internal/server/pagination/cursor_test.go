package pagination

import (
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, time.March, 14, 9, 26, 53, 589793238, time.UTC)
	cursor := EncodeCursor(ts, 42)

	gotTs, gotID, err := DecodeCursor(cursor)
	if err != nil {
		t.Fatalf("DecodeCursor returned error: %v", err)
	}
	if !gotTs.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", gotTs, ts)
	}
	if gotID != 42 {
		t.Errorf("id = %d, want 42", gotID)
	}
}

func TestEncodeNormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*3600)
	local := time.Date(2026, time.January, 5, 12, 0, 0, 0, loc)

	gotTs, _, err := DecodeCursor(EncodeCursor(local, 1))
	if err != nil {
		t.Fatalf("DecodeCursor returned error: %v", err)
	}
	if gotTs.Location() != time.UTC {
		t.Errorf("decoded location = %v, want UTC", gotTs.Location())
	}
	if !gotTs.Equal(local) {
		t.Errorf("decoded instant %v differs from original %v", gotTs, local)
	}
}

func TestDecodeInvalidCursors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!not-base64!!"},
		{"missing separator", "MjAyNi0wMS0wMVQwMDowMDowMFo"}, // no id part
		{"bad timestamp", EncodeCursor(time.Now(), 1)[:4]},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeCursor(tt.cursor); err == nil {
				t.Errorf("DecodeCursor(%q) succeeded, want error", tt.cursor)
			}
		})
	}
}

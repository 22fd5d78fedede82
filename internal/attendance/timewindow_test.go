package attendance

import (
	"testing"
	"time"

	pkgerrors "RollCall/pkg/errors"
)

func TestParseOffset(t *testing.T) {
	cases := []struct {
		input   string
		minutes int
		ok      bool
	}{
		{"0H10M", 10, true},
		{"1H30M", 90, true},
		{"0H0M", 0, true},
		{"2H05M", 125, true},
		{"10H0M", 600, true},
		{"FULL", 0, false},
		{"1H", 0, false},
		{"30M", 0, false},
		{"1h30m", 0, false},
		{"H30M", 0, false},
		{"1H30", 0, false},
		{"-1H10M", 0, false},
		{"", 0, false},
		{"1H30M extra", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseOffset(tc.input)
		if ok != tc.ok {
			t.Errorf("ParseOffset(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			continue
		}
		if ok && got != tc.minutes {
			t.Errorf("ParseOffset(%q) = %d, want %d", tc.input, got, tc.minutes)
		}
	}
}

func TestComputeWindow(t *testing.T) {
	loc := time.UTC

	w, err := ComputeWindow("2026-03-02", "09:00", "11:00", "0H10M", "1H30M", loc)
	if err != nil {
		t.Fatalf("ComputeWindow returned error: %v", err)
	}

	wantStart := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	if !w.ClassStart.Equal(wantStart) {
		t.Errorf("ClassStart = %v, want %v", w.ClassStart, wantStart)
	}
	if !w.ClassEnd.Equal(time.Date(2026, 3, 2, 11, 0, 0, 0, loc)) {
		t.Errorf("ClassEnd = %v", w.ClassEnd)
	}
	if !w.EntryStart.Equal(time.Date(2026, 3, 2, 9, 10, 0, 0, loc)) {
		t.Errorf("EntryStart = %v, want 09:10", w.EntryStart)
	}
	if !w.EntryEnd.Equal(time.Date(2026, 3, 2, 10, 30, 0, 0, loc)) {
		t.Errorf("EntryEnd = %v, want 10:30", w.EntryEnd)
	}
}

func TestComputeWindowFullSentinel(t *testing.T) {
	w, err := ComputeWindow("2026-03-02", "09:00", "11:00", "0H0M", OffsetFull, time.UTC)
	if err != nil {
		t.Fatalf("ComputeWindow returned error: %v", err)
	}
	if !w.EntryEnd.Equal(w.ClassEnd) {
		t.Errorf("FULL entry end = %v, want class end %v", w.EntryEnd, w.ClassEnd)
	}
}

func TestComputeWindowErrors(t *testing.T) {
	cases := []struct {
		name                        string
		date, start, end            string
		entryStart, entryEnd        string
		wantCode                    string
	}{
		{"bad date", "02-03-2026", "09:00", "11:00", "0H10M", "1H30M", pkgerrors.InvalidTimeRange.Code},
		{"bad class time", "2026-03-02", "9am", "11:00", "0H10M", "1H30M", pkgerrors.InvalidTimeRange.Code},
		{"bad entry start", "2026-03-02", "09:00", "11:00", "later", "1H30M", pkgerrors.InvalidEntryWindow.Code},
		{"bad entry end", "2026-03-02", "09:00", "11:00", "0H10M", "90M", pkgerrors.InvalidEntryWindow.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeWindow(tc.date, tc.start, tc.end, tc.entryStart, tc.entryEnd, time.UTC)
			def, ok := err.(pkgerrors.Definition)
			if !ok {
				t.Fatalf("expected a Definition error, got %v", err)
			}
			if def.Code != tc.wantCode {
				t.Errorf("error code = %s, want %s", def.Code, tc.wantCode)
			}
		})
	}
}

func TestValidateEntryOffsets(t *testing.T) {
	cases := []struct {
		name                 string
		entryStart, entryEnd string
		classStart, classEnd string
		wantErr              bool
	}{
		{"valid window", "0H10M", "1H30M", "09:00", "11:00", false},
		{"full sentinel", "0H10M", "FULL", "09:00", "11:00", false},
		{"end equals start", "0H30M", "0H30M", "09:00", "11:00", true},
		{"end before start", "1H0M", "0H30M", "09:00", "11:00", true},
		{"bad start syntax", "soon", "1H30M", "09:00", "11:00", true},
		{"full with zero-length class", "0H10M", "FULL", "09:00", "09:00", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEntryOffsets(tc.entryStart, tc.entryEnd, tc.classStart, tc.classEnd)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateEntryOffsets returned %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestWidenToOnlyExpands(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	w := Window{EntryEnd: base}

	earlier := w.WidenTo(base.Add(-10 * time.Minute))
	if !earlier.EntryEnd.Equal(base) {
		t.Errorf("WidenTo to an earlier time moved EntryEnd to %v", earlier.EntryEnd)
	}

	later := w.WidenTo(base.Add(15 * time.Minute))
	if !later.EntryEnd.Equal(base.Add(15 * time.Minute)) {
		t.Errorf("WidenTo to a later time gave %v", later.EntryEnd)
	}
}

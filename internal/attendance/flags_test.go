package attendance

import (
	"testing"
	"time"
)

func flagCodes(flags []Flag) map[FlagReason]bool {
	set := make(map[FlagReason]bool, len(flags))
	for _, f := range flags {
		set[f.Code] = true
	}
	return set
}

func TestEvaluateFlags(t *testing.T) {
	entryStart := time.Date(2026, 3, 2, 9, 10, 0, 0, time.UTC)
	entryEnd := entryStart.Add(80 * time.Minute)

	cases := []struct {
		name string
		in   FlagInput
		want []FlagReason
	}{
		{
			"clean geo mark inside window",
			FlagInput{
				MarkTime: entryStart.Add(5 * time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodGeo, HasLocation: true, GeoChecked: true, WithinRange: true,
			},
			nil,
		},
		{
			"mark before the window",
			FlagInput{
				MarkTime: entryStart.Add(-time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodManual,
			},
			[]FlagReason{FlagOutsideWindow},
		},
		{
			"mark after the window",
			FlagInput{
				MarkTime: entryEnd.Add(time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodManual,
			},
			[]FlagReason{FlagOutsideWindow},
		},
		{
			"geo mark out of range",
			FlagInput{
				MarkTime: entryStart.Add(5 * time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodGeo, HasLocation: true, GeoChecked: true, WithinRange: false,
			},
			[]FlagReason{FlagLocationMismatch},
		},
		{
			"geo mark with no coordinate",
			FlagInput{
				MarkTime: entryStart.Add(5 * time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodGeo, HasLocation: false,
			},
			[]FlagReason{FlagGeoDisabled},
		},
		{
			"geo mark against a session with no location reference",
			FlagInput{
				MarkTime: entryStart.Add(5 * time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodGeo, HasLocation: true, GeoChecked: false,
			},
			[]FlagReason{FlagGeoDisabled},
		},
		{
			"late geo mark out of range stacks both flags",
			FlagInput{
				MarkTime: entryEnd.Add(5 * time.Minute), EntryStart: entryStart, EntryEnd: entryEnd,
				Method: MethodGeo, HasLocation: true, GeoChecked: true, WithinRange: false,
			},
			[]FlagReason{FlagOutsideWindow, FlagLocationMismatch},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateFlags(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d flags %v, want %d", len(got), got, len(tc.want))
			}
			set := flagCodes(got)
			for _, code := range tc.want {
				if !set[code] {
					t.Errorf("missing flag %s in %v", code, got)
				}
			}
			for _, f := range got {
				if f.DetectedBy != DetectorSystem {
					t.Errorf("flag %s detected by %s, want system", f.Code, f.DetectedBy)
				}
			}
		})
	}
}

func TestEvaluateFlagsBoundariesAreClean(t *testing.T) {
	entryStart := time.Date(2026, 3, 2, 9, 10, 0, 0, time.UTC)
	entryEnd := entryStart.Add(80 * time.Minute)

	for _, at := range []time.Time{entryStart, entryEnd} {
		in := FlagInput{MarkTime: at, EntryStart: entryStart, EntryEnd: entryEnd, Method: MethodManual}
		if got := EvaluateFlags(in); len(got) != 0 {
			t.Errorf("mark at %v produced flags %v, window edges are inclusive", at, got)
		}
	}
}

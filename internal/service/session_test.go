package service

import (
	"testing"

	"RollCall/internal/attendance"
	"RollCall/internal/model/dto"
	pkgerrors "RollCall/pkg/errors"
)

func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }
func intPtr(v int) *int             { return &v }
func stringPtr(v string) *string    { return &v }

func TestValidateSessionLocation(t *testing.T) {
	cases := []struct {
		name    string
		lat     *float64
		lon     *float64
		radius  int
		wantErr bool
	}{
		{"no location at all", nil, nil, 0, false},
		{"valid location with radius", float64Ptr(40.0), float64Ptr(116.0), 100, false},
		{"latitude without longitude", float64Ptr(40.0), nil, 100, true},
		{"longitude without latitude", nil, float64Ptr(116.0), 100, true},
		{"latitude out of range", float64Ptr(91.0), float64Ptr(116.0), 100, true},
		{"longitude out of range", float64Ptr(40.0), float64Ptr(181.0), 100, true},
		{"location without radius", float64Ptr(40.0), float64Ptr(116.0), 0, true},
		{"negative radius", float64Ptr(40.0), float64Ptr(116.0), -10, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSessionLocation(tc.lat, tc.lon, tc.radius)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateSessionLocation returned %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				def, ok := err.(pkgerrors.Definition)
				if !ok || def.Code != pkgerrors.InvalidLocation.Code {
					t.Errorf("error = %v, want code %s", err, pkgerrors.InvalidLocation.Code)
				}
			}
		})
	}
}

func TestMergeSettingsDefaults(t *testing.T) {
	got := attendance.Settings(mergeSettings(nil))
	want := attendance.DefaultSettings()
	if got != want {
		t.Errorf("mergeSettings(nil) = %+v, want defaults %+v", got, want)
	}
}

func TestMergeSettingsPartialOverride(t *testing.T) {
	p := &dto.SessionSettingsPayload{
		AllowLateCheckIn:        boolPtr(true),
		MinimumPresenceDuration: intPtr(30),
		ProofRequirement:        stringPtr("selfie"),
	}

	got := attendance.Settings(mergeSettings(p))

	if !got.AllowLateCheckIn {
		t.Error("AllowLateCheckIn override lost")
	}
	if got.MinimumPresenceDuration != 30 {
		t.Errorf("MinimumPresenceDuration = %d, want 30", got.MinimumPresenceDuration)
	}
	if got.ProofRequirement != attendance.ProofSelfie {
		t.Errorf("ProofRequirement = %s, want selfie", got.ProofRequirement)
	}
	// 未提供的字段保持默认
	if !got.AllowEarlyCheckIn || !got.EnableCheckInOut {
		t.Errorf("untouched fields drifted from defaults: %+v", got)
	}
}

func TestMergeSettingsRejectsNegativeDuration(t *testing.T) {
	p := &dto.SessionSettingsPayload{MinimumPresenceDuration: intPtr(-5)}
	if got := attendance.Settings(mergeSettings(p)); got.MinimumPresenceDuration != 0 {
		t.Errorf("negative duration accepted: %d", got.MinimumPresenceDuration)
	}
}

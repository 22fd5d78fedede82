package service

import (
	"testing"

	"RollCall/internal/attendance"
	"RollCall/internal/model/dto"
)

func TestMergeReopenFeaturesDefaults(t *testing.T) {
	got := attendance.ReopenFeatures(mergeReopenFeatures(nil))
	want := attendance.DefaultReopenFeatures()
	if got != want {
		t.Errorf("mergeReopenFeatures(nil) = %+v, want defaults %+v", got, want)
	}
	if got.FinalStatusRules.AbsentHandling != attendance.FinalPresent {
		t.Errorf("default absent handling = %q, want present", got.FinalStatusRules.AbsentHandling)
	}
}

func TestMergeReopenFeaturesOverrides(t *testing.T) {
	p := &dto.ReopenFeaturesPayload{
		AllowFreshCheckInOut: boolPtr(false),
		RequireGeo:           boolPtr(true),
		AbsentHandling:       stringPtr("partial"),
		PartialHandling:      stringPtr("present"),
	}

	got := attendance.ReopenFeatures(mergeReopenFeatures(p))

	if got.AllowFreshCheckInOut {
		t.Error("AllowFreshCheckInOut override lost")
	}
	if !got.RequireGeo {
		t.Error("RequireGeo override lost")
	}
	if got.FinalStatusRules.AbsentHandling != attendance.FinalPartial {
		t.Errorf("AbsentHandling = %q, want partial", got.FinalStatusRules.AbsentHandling)
	}
	if got.FinalStatusRules.PartialHandling != attendance.FinalPresent {
		t.Errorf("PartialHandling = %q, want present", got.FinalStatusRules.PartialHandling)
	}
	// 未提供的开关保持默认
	if !got.AllowCheckOutForCheckedIn || !got.EnableFinalStatusControl {
		t.Errorf("untouched features drifted from defaults: %+v", got)
	}
}

package queue

import (
	"encoding/json"
	"strings"
	"testing"

	"RollCall/internal/model"
)

func TestBuildActivationNotification(t *testing.T) {
	raw := `{
		"message_id": "1234567890",
		"session_id": 42,
		"session_code": "5001",
		"group_id": 7,
		"course_code": "CS101",
		"course_title": "Operating Systems",
		"class_date": "2026-03-02",
		"class_start": "08:00",
		"class_end": "09:40",
		"entry_end_at": "09:30",
		"student_ids": [11, 12, 13]
	}`

	var msg model.SessionActivatedMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	n := buildActivationNotification(msg)

	if n.MessageID != "1234567890" {
		t.Errorf("MessageID = %q, want 1234567890", n.MessageID)
	}
	if n.SessionID != 42 || n.GroupID != 7 {
		t.Errorf("SessionID/GroupID = %d/%d, want 42/7", n.SessionID, n.GroupID)
	}
	if n.RecipientID != 0 {
		t.Errorf("RecipientID = %d, want 0 (group-wide)", n.RecipientID)
	}
	if string(n.Category) != "session_activated" {
		t.Errorf("Category = %q, want session_activated", n.Category)
	}
	if n.Status != model.NotificationStatusPending {
		t.Errorf("Status = %q, want pending", n.Status)
	}
	if !strings.Contains(n.Title, "Operating Systems") {
		t.Errorf("Title %q does not name the course", n.Title)
	}
	if !strings.Contains(n.Body, "09:30") {
		t.Errorf("Body %q does not mention the entry deadline", n.Body)
	}
	if n.Payload["session_code"] != "5001" {
		t.Errorf("Payload session_code = %v, want 5001", n.Payload["session_code"])
	}
}

func TestBuildSummaryNotification(t *testing.T) {
	msg := model.SessionSummaryMessage{
		MessageID:   "9876543210",
		SessionID:   42,
		SessionCode: "5001",
		GroupID:     7,
		RecipientID: 21,
		CourseCode:  "CS101",
		CourseTitle: "Operating Systems",
		ClassDate:   "2026-03-02",
		Stats: model.SummaryStats{
			TotalPresent: 28,
			OnTime:       25,
			Late:         3,
			LeftEarly:    1,
			Absent:       2,
			WithPlea:     1,
		},
		FlaggedCount: 4,
	}

	n := buildSummaryNotification(msg)

	if n.RecipientID != 21 {
		t.Errorf("RecipientID = %d, want 21 (session owner)", n.RecipientID)
	}
	if string(n.Category) != "session_summary" {
		t.Errorf("Category = %q, want session_summary", n.Category)
	}
	for _, want := range []string{"28 present", "3 late", "2 absent", "4 flagged"} {
		if !strings.Contains(n.Body, want) {
			t.Errorf("Body %q missing %q", n.Body, want)
		}
	}
	if n.Payload["flagged_count"] != 4 {
		t.Errorf("Payload flagged_count = %v, want 4", n.Payload["flagged_count"])
	}
}

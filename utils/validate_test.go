package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"lecturer@university.edu",
		"first.last@cs.example.org",
		"rep+attendance@school.io",
	}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = false, want true", email)
		}
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@domain",
		"@nobody.edu",
		"spaces in@local.edu",
	}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = true, want false", email)
		}
	}
}

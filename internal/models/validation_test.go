package models

import "testing"

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		wantErr  bool
	}{
		{"amine", false},
		{"abc", false},
		{"abcdefghijklmnopqrstuvwx", false},
		{"ab", true},
		{"abcdefghijklmnopqrstuvwxy", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateUsername(%q) = %v, wantErr %v", tt.username, err, tt.wantErr)
		}
		if err != nil && !IsValidation(err) {
			t.Errorf("ValidateUsername(%q) error is not a validation error: %v", tt.username, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("ValidatePassword(6 chars) = %v", err)
	}
	if err := ValidatePassword("12345"); !IsValidation(err) {
		t.Errorf("ValidatePassword(5 chars) = %v, want validation error", err)
	}
}

func TestValidateMessageBody(t *testing.T) {
	got, err := ValidateMessageBody("  hello  ")
	if err != nil {
		t.Fatalf("ValidateMessageBody: %v", err)
	}
	if got != "hello" {
		t.Errorf("trimmed body = %q, want %q", got, "hello")
	}

	for _, body := range []string{"", "   ", "\t\n"} {
		if _, err := ValidateMessageBody(body); !IsValidation(err) {
			t.Errorf("ValidateMessageBody(%q) = %v, want validation error", body, err)
		}
	}
}

func TestMentionToken(t *testing.T) {
	if got := MentionToken("amine"); got != "@amine" {
		t.Errorf("MentionToken = %q, want @amine", got)
	}
}

package user

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAvatar_Valid(t *testing.T) {
	tests := []struct {
		avatar Avatar
		want   bool
	}{
		{DefaultAvatar, true},
		{"profileIcon6", true},
		{"profileIcon7", false},
		{"", false},
		{"../../etc/passwd", false},
	}
	for _, tt := range tests {
		if got := tt.avatar.Valid(); got != tt.want {
			t.Errorf("Avatar(%q).Valid() = %v, want %v", tt.avatar, got, tt.want)
		}
	}
}

func TestUser_PublicHidesCredential(t *testing.T) {
	u := User{ID: "u1", Username: "alice", PasswordHash: "$2a$10$secret"}

	public := u.Public()
	if public.PasswordHash != "" {
		t.Errorf("Public().PasswordHash = %q, want empty", public.PasswordHash)
	}
	if u.PasswordHash == "" {
		t.Error("Public() modified the receiver")
	}

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Errorf("JSON output leaks the hash: %s", raw)
	}
}

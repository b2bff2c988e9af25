package mentions

import (
	"testing"

	"github.com/wisdomcircle/circled/internal/models"
)

func msgs(bodies ...string) []models.Message {
	out := make([]models.Message, len(bodies))
	for i, b := range bodies {
		out[i] = models.Message{ID: int64(i + 1), Username: "someone", Body: b}
	}
	return out
}

func TestMentions(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		username string
		want     bool
	}{
		{"simple mention", "hello @amine", "amine", true},
		{"no mention", "hello everyone", "amine", false},
		{"bare name without at", "amine was here", "amine", false},
		{"mention mid word", "say@amine!", "amine", true},
		{"prefix overlap", "ping @amina", "amine", false},
		{"shorter name matches inside longer", "ping @amina", "amin", true},
		{"empty username", "hello @", "", false},
		{"empty body", "", "amine", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.Message{Body: tt.body}
			if got := Mentions(m, tt.username); got != tt.want {
				t.Errorf("Mentions(%q, %q) = %v, want %v", tt.body, tt.username, got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	usernames := []string{"a", "b"}
	messages := msgs("@a hi", "@a @a again", "nothing here")

	got := Count(usernames, messages)

	if got["a"] != 2 {
		t.Errorf(`counts["a"] = %d, want 2`, got["a"])
	}
	if got["b"] != 0 {
		t.Errorf(`counts["b"] = %d, want 0`, got["b"])
	}
}

func TestCountMessageCountsOncePerUser(t *testing.T) {
	got := Count([]string{"amine"}, msgs("@amine @amine @amine"))
	if got["amine"] != 1 {
		t.Errorf(`counts["amine"] = %d, want 1`, got["amine"])
	}
}

func TestCountEmptyInputs(t *testing.T) {
	if got := Count(nil, msgs("@a")); len(got) != 0 {
		t.Errorf("Count(nil, ...) = %v, want empty", got)
	}

	got := Count([]string{"a"}, nil)
	if n, ok := got["a"]; !ok || n != 0 {
		t.Errorf(`counts["a"] = %d (present %v), want 0 present`, n, ok)
	}
}

package filter

import (
	"strings"
	"testing"
)

func mustMatch(t *testing.T, key, value string) Condition {
	t.Helper()
	c, err := NewMatch(key, value)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return c
}

func TestNewMatch_Validation(t *testing.T) {
	if _, err := NewMatch("", "x"); err == nil || !strings.Contains(err.Error(), "key is required") {
		t.Errorf("empty key: err = %v", err)
	}
	if _, err := NewMatch("status", ""); err == nil || !strings.Contains(err.Error(), "match value") {
		t.Errorf("empty value: err = %v", err)
	}
}

func TestNewExpression_TooMany(t *testing.T) {
	conds := make([]Condition, MaxConditionsPerGroup+1)
	if _, err := NewExpression(conds, nil, nil); err == nil {
		t.Error("expected error for too many must conditions")
	}
	if _, err := NewExpression(nil, conds, nil); err == nil {
		t.Error("expected error for too many should conditions")
	}
	if _, err := NewExpression(nil, nil, conds); err == nil {
		t.Error("expected error for too many must_not conditions")
	}
}

func TestExpression_Matches(t *testing.T) {
	published := mustMatch(t, "status", "published")
	draft := mustMatch(t, "status", "draft")
	en := mustMatch(t, "lang", "en")
	de := mustMatch(t, "lang", "de")

	tests := []struct {
		name    string
		must    []Condition
		should  []Condition
		mustNot []Condition
		attrs   map[string]string
		want    bool
	}{
		{"empty matches all", nil, nil, nil, map[string]string{}, true},
		{"must hit", []Condition{published}, nil, nil, map[string]string{"status": "published"}, true},
		{"must miss", []Condition{published}, nil, nil, map[string]string{"status": "draft"}, false},
		{"must missing key", []Condition{published}, nil, nil, map[string]string{}, false},
		{"must_not hit", nil, nil, []Condition{draft}, map[string]string{"status": "draft"}, false},
		{"must_not miss", nil, nil, []Condition{draft}, map[string]string{"status": "published"}, true},
		{"should one of", nil, []Condition{en, de}, nil, map[string]string{"lang": "de"}, true},
		{"should none", nil, []Condition{en, de}, nil, map[string]string{"lang": "fr"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewExpression(tt.must, tt.should, tt.mustNot)
			if err != nil {
				t.Fatalf("NewExpression: %v", err)
			}
			if got := e.Matches(tt.attrs); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpression_KeysAndEmpty(t *testing.T) {
	var e Expression
	if !e.IsEmpty() {
		t.Error("zero expression should be empty")
	}
	e, _ = NewExpression(
		[]Condition{mustMatch(t, "a", "1")},
		[]Condition{mustMatch(t, "b", "2")},
		[]Condition{mustMatch(t, "c", "3")},
	)
	if e.IsEmpty() {
		t.Error("expression should not be empty")
	}
	keys := e.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Keys = %v", keys)
	}
}

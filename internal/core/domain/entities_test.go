package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

func TestNonNil(t *testing.T) {
	if got := domain.NonNil(nil); got == nil || len(got) != 0 {
		t.Errorf("NonNil(nil) = %#v, want empty slice", got)
	}
	in := []string{"Erembodegem"}
	if got := domain.NonNil(in); len(got) != 1 || got[0] != "Erembodegem" {
		t.Errorf("NonNil kept %v, want %v", got, in)
	}
}

func TestRouteDraft_PatchEncodesEmptyLists(t *testing.T) {
	patch := domain.RouteDraft{Name: "Rondje", Difficulty: domain.DifficultyEasy}.Patch(nil)

	var route domain.Route
	patch.Apply(&route)
	raw, err := json.Marshal(route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, field := range []string{"gehuchten", "highlights"} {
		if string(out[field]) != "[]" {
			t.Errorf("%s = %s, want []", field, out[field])
		}
	}
}

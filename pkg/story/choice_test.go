package story

import (
	"testing"
)

func testChoiceTable() ChoiceTable {
	return ChoiceTable{
		"choose_nebula": &Choice{
			Effects: &Effects{AddItem: "stardust_vial", NextScene: "nebula/arrival"},
			Message: &ButtonMessage{BodyText: "You lean into the current."},
		},
		DefaultChoiceID: &Choice{
			Message: &ButtonMessage{BodyText: "Something unexpected happened..."},
		},
	}
}

func TestChoiceTable_ResolveKnown(t *testing.T) {
	table := testChoiceTable()

	choice, known := table.Resolve("choose_nebula")
	if !known {
		t.Error("Expected choice to be reported as known")
	}
	if choice == nil || choice.Effects == nil || choice.Effects.AddItem != "stardust_vial" {
		t.Errorf("Expected the choose_nebula choice, got %+v", choice)
	}
}

func TestChoiceTable_ResolveUnknownFallsBack(t *testing.T) {
	table := testChoiceTable()

	choice, known := table.Resolve("fly_to_the_moon")
	if known {
		t.Error("Expected unknown choice to be reported as unknown")
	}
	if choice == nil || choice.Message.BodyText != "Something unexpected happened..." {
		t.Errorf("Expected the default choice, got %+v", choice)
	}
}

func TestChoiceTable_ResolveWithoutDefault(t *testing.T) {
	table := ChoiceTable{
		"choose_nebula": &Choice{Message: &ButtonMessage{BodyText: "ok"}},
	}

	choice, known := table.Resolve("fly_to_the_moon")
	if known {
		t.Error("Expected unknown choice to be reported as unknown")
	}
	if choice != nil {
		t.Errorf("Expected nil choice when no default exists, got %+v", choice)
	}
}

func TestScene_RowIDs(t *testing.T) {
	scene := &Scene{
		ID: "intro/welcome",
		ListMessage: ListMessage{
			BodyText:   "Welcome",
			ButtonText: "Choose",
			Sections: []Section{
				{Title: "A", Rows: []Row{{ID: "choose_nebula"}, {ID: "enter_vortex"}}},
				{Title: "B", Rows: []Row{{ID: "hack_bot"}}},
			},
		},
	}

	ids := scene.RowIDs()
	want := []string{"choose_nebula", "enter_vortex", "hack_bot"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %d row ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected row id %q at position %d, got %q", want[i], i, ids[i])
		}
	}
}

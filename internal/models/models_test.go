package models

import "testing"

func TestEventValidate(t *testing.T) {
	ev := Event{ChatID: "100", ActorID: "42", Kind: TriggerText, Text: "hello"}
	if err := ev.Validate(); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}

	bad := Event{ActorID: "42", Kind: TriggerText}
	if err := bad.Validate(); err != ErrEmptyChatID {
		t.Errorf("expected ErrEmptyChatID, got %v", err)
	}

	bad = Event{ChatID: "100", Kind: TriggerText}
	if err := bad.Validate(); err != ErrEmptyActorID {
		t.Errorf("expected ErrEmptyActorID, got %v", err)
	}

	bad = Event{ChatID: "100", ActorID: "42", Kind: "bogus"}
	if err := bad.Validate(); err != ErrInvalidTrigger {
		t.Errorf("expected ErrInvalidTrigger, got %v", err)
	}
}

func TestRecipeDraftConversion(t *testing.T) {
	d := RecipeDraft{
		Title:        "Omelette",
		Ingredients:  "eggs, butter",
		CookingTime:  10,
		SkillLevel:   "beginner",
		Calories:     300,
		Instructions: "whisk and fry",
	}
	r := d.Recipe("42")
	if r.OwnerID != "42" {
		t.Errorf("expected owner 42, got %q", r.OwnerID)
	}
	if r.Title != d.Title || r.Calories != d.Calories {
		t.Errorf("draft fields not carried into recipe: %+v", r)
	}
	if r.ID != 0 {
		t.Errorf("unsaved recipe must not have an id, got %d", r.ID)
	}
}

package flows

import "testing"

func TestTokenRoundTrips(t *testing.T) {
	if got := EncodeView(12); got != "view_recipe_12" {
		t.Errorf("EncodeView = %q", got)
	}
	id, err := ParseView("view_recipe_12")
	if err != nil || id != 12 {
		t.Errorf("ParseView = %d, %v", id, err)
	}

	if got := EncodeFavorite(7); got != "favorite_7" {
		t.Errorf("EncodeFavorite = %q", got)
	}
	id, err = ParseFavorite("favorite_7")
	if err != nil || id != 7 {
		t.Errorf("ParseFavorite = %d, %v", id, err)
	}

	if got := EncodeEditEntry(3); got != "edit_recipe_3" {
		t.Errorf("EncodeEditEntry = %q", got)
	}
	id, err = ParseEditEntry("edit_recipe_3")
	if err != nil || id != 3 {
		t.Errorf("ParseEditEntry = %d, %v", id, err)
	}
}

func TestParseEditField(t *testing.T) {
	token, err := ParseEditField("edit_12_title")
	if err != nil || token.RecipeID != 12 || token.Field != "title" {
		t.Errorf("ParseEditField = %+v, %v", token, err)
	}

	// Compound field names keep their underscores.
	token, err = ParseEditField("edit_12_remove_photo")
	if err != nil || token.RecipeID != 12 || token.Field != "remove_photo" {
		t.Errorf("ParseEditField = %+v, %v", token, err)
	}

	for _, payload := range []string{"edit_recipe_12", "edit_x_title", "edit_12", "edit_12_", "view_recipe_12"} {
		if _, err := ParseEditField(payload); err == nil {
			t.Errorf("expected error for %q", payload)
		}
	}
}

func TestParseTokenErrors(t *testing.T) {
	if _, err := ParseView("view_recipe_abc"); err == nil {
		t.Error("expected error for non-numeric view token")
	}
	if _, err := ParseFavorite("view_recipe_1"); err == nil {
		t.Error("expected error for wrong prefix")
	}
	if _, err := ParseEditEntry("edit_recipe_"); err == nil {
		t.Error("expected error for empty id")
	}
}

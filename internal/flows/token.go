package flows

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback token prefixes shared between keyboards and flow bindings.
const (
	tokenViewPrefix      = "view_recipe_"
	tokenFavoritePrefix  = "favorite_"
	tokenEditEntryPrefix = "edit_recipe_"
	tokenEditFieldPrefix = "edit_"
)

// Edit field selectors carried in edit_<id>_<field> tokens.
const (
	editFieldTitle        = "title"
	editFieldIngredients  = "ingredients"
	editFieldCookingTime  = "time"
	editFieldSkillLevel   = "level"
	editFieldCalories     = "calories"
	editFieldInstructions = "instructions"
	editFieldPhoto        = "photo"
	editFieldVoice        = "voice"
	editFieldRemovePhoto  = "remove_photo"
	editFieldRemoveVoice  = "remove_voice"
	editFieldCancel       = "cancel"
)

// CallbackPrefixes lists the token prefixes a transport should classify as
// callback payloads when a user types one directly.
func CallbackPrefixes() []string {
	return []string{tokenViewPrefix, tokenFavoritePrefix, tokenEditFieldPrefix}
}

// EditToken is a decoded edit_<id>_<field> callback token.
type EditToken struct {
	RecipeID int64
	Field    string
}

// EncodeView builds a view_recipe_<id> token.
func EncodeView(id int64) string {
	return tokenViewPrefix + strconv.FormatInt(id, 10)
}

// ParseView decodes a view_recipe_<id> token.
func ParseView(payload string) (int64, error) {
	return parseSuffixID(payload, tokenViewPrefix)
}

// EncodeFavorite builds a favorite_<id> token.
func EncodeFavorite(id int64) string {
	return tokenFavoritePrefix + strconv.FormatInt(id, 10)
}

// ParseFavorite decodes a favorite_<id> token.
func ParseFavorite(payload string) (int64, error) {
	return parseSuffixID(payload, tokenFavoritePrefix)
}

// EncodeEditEntry builds an edit_recipe_<id> token.
func EncodeEditEntry(id int64) string {
	return tokenEditEntryPrefix + strconv.FormatInt(id, 10)
}

// ParseEditEntry decodes an edit_recipe_<id> token.
func ParseEditEntry(payload string) (int64, error) {
	return parseSuffixID(payload, tokenEditEntryPrefix)
}

// EncodeEditField builds an edit_<id>_<field> token.
func EncodeEditField(id int64, field string) string {
	return fmt.Sprintf("%s%d_%s", tokenEditFieldPrefix, id, field)
}

// ParseEditField decodes an edit_<id>_<field> token. The field part may
// itself contain underscores (remove_photo, remove_voice).
func ParseEditField(payload string) (EditToken, error) {
	rest, ok := strings.CutPrefix(payload, tokenEditFieldPrefix)
	if !ok {
		return EditToken{}, fmt.Errorf("not an edit token: %q", payload)
	}
	idPart, field, found := strings.Cut(rest, "_")
	if !found || field == "" {
		return EditToken{}, fmt.Errorf("malformed edit token: %q", payload)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return EditToken{}, fmt.Errorf("malformed edit token: %q", payload)
	}
	return EditToken{RecipeID: id, Field: field}, nil
}

func parseSuffixID(payload, prefix string) (int64, error) {
	rest, ok := strings.CutPrefix(payload, prefix)
	if !ok {
		return 0, fmt.Errorf("token %q does not have prefix %q", payload, prefix)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed token: %q", payload)
	}
	return id, nil
}

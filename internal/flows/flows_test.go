package flows

import (
	"context"
	"strings"
	"testing"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
	"github.com/recipedesk/RecipeDesk/internal/store"
)

type captureSink struct {
	replies []models.Reply
}

func (c *captureSink) Send(ctx context.Context, r models.Reply) error {
	c.replies = append(c.replies, r)
	return nil
}

func (c *captureSink) reset() {
	c.replies = nil
}

func (c *captureSink) contains(sub string) bool {
	for _, r := range c.replies {
		if strings.Contains(r.Text, sub) {
			return true
		}
	}
	return false
}

type captureNotifier struct {
	chatIDs []string
	replies []models.Reply
}

func (n *captureNotifier) SendReply(ctx context.Context, chatID string, r models.Reply) error {
	n.chatIDs = append(n.chatIDs, chatID)
	n.replies = append(n.replies, r)
	return nil
}

type harness struct {
	t        *testing.T
	engine   *dialog.Engine
	records  store.Store
	sessions *session.MemoryStore
	sink     *captureSink
	notify   *captureNotifier
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithStore(t, store.NewMemoryStore(store.WithAdminIDs([]string{"admin"})))
}

func newHarnessWithStore(t *testing.T, records store.Store) *harness {
	t.Helper()
	sessions := session.NewMemoryStore()
	engine := dialog.NewEngine(sessions)
	h := &harness{
		t:        t,
		engine:   engine,
		records:  records,
		sessions: sessions,
		sink:     &captureSink{},
		notify:   &captureNotifier{},
	}
	deps := Deps{Records: records, Notify: h.notify}
	if err := RegisterAll(engine, deps); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	return h
}

func (h *harness) dispatch(ev models.Event) {
	h.t.Helper()
	ev.Sink = h.sink
	if err := h.engine.Dispatch(context.Background(), ev); err != nil {
		h.t.Fatalf("Dispatch failed: %v", err)
	}
}

func (h *harness) command(actor, name string, args ...string) models.Event {
	return models.Event{ChatID: actor, ActorID: actor, Kind: models.TriggerCommand, Command: name, Args: args}
}

func (h *harness) text(actor, body string) models.Event {
	return models.Event{ChatID: actor, ActorID: actor, Kind: models.TriggerText, Text: body}
}

func (h *harness) callback(actor, payload string) models.Event {
	return models.Event{ChatID: actor, ActorID: actor, Kind: models.TriggerCallback, Payload: payload}
}

func (h *harness) media(actor string, kind models.MediaKind, ref string) models.Event {
	return models.Event{ChatID: actor, ActorID: actor, Kind: models.TriggerMedia, Media: &models.Media{Kind: kind, Ref: ref}}
}

func (h *harness) register(actor, username string) {
	h.t.Helper()
	if err := h.records.RegisterUser(context.Background(), models.UserProfile{ActorID: actor, Username: username}); err != nil {
		h.t.Fatalf("RegisterUser failed: %v", err)
	}
}

func (h *harness) liveSessions() int {
	h.t.Helper()
	n, err := h.sessions.Count(context.Background())
	if err != nil {
		h.t.Fatalf("Count failed: %v", err)
	}
	return n
}

func (h *harness) addRecipe(actor string, r models.Recipe) int64 {
	h.t.Helper()
	r.OwnerID = actor
	id, err := h.records.SaveRecipe(context.Background(), r)
	if err != nil {
		h.t.Fatalf("SaveRecipe failed: %v", err)
	}
	return id
}

func TestRegistrationFlow(t *testing.T) {
	h := newHarness(t)

	h.dispatch(h.command("42", "start"))
	if !h.sink.contains("enter a username") {
		t.Fatalf("expected username prompt, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 1 {
		t.Fatalf("expected registration session, got %d", h.liveSessions())
	}

	h.sink.reset()
	h.dispatch(h.text("42", "alice"))
	if !h.sink.contains("Registration complete") {
		t.Fatalf("expected completion message, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("expected session ended, got %d", h.liveSessions())
	}

	registered, err := h.records.IsRegistered(context.Background(), "42")
	if err != nil || !registered {
		t.Errorf("expected user registered, got %v, %v", registered, err)
	}

	profile, _ := h.records.GetProfile(context.Background(), "42")
	if profile == nil || profile.Username != "alice" {
		t.Errorf("profile not stored: %+v", profile)
	}
}

func TestRegistrationShortCircuitsForRegisteredUser(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "start"))
	if !h.sink.contains("Welcome back") {
		t.Fatalf("expected welcome back, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("registered /start must not open a session, got %d", h.liveSessions())
	}
}

func TestRecipeCreateFullWalk(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "add_recipe"))
	h.dispatch(h.text("42", "Tomato Soup"))
	h.dispatch(h.text("42", "tomato, salt"))
	h.dispatch(h.text("42", "30"))
	h.dispatch(h.text("42", "Beginner"))

	// Invalid calories re-prompt and keep the session in place.
	h.sink.reset()
	h.dispatch(h.text("42", "abc"))
	if !h.sink.contains("valid number") {
		t.Fatalf("expected re-prompt for bad calories, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 1 {
		t.Fatalf("invalid input must keep the session, got %d", h.liveSessions())
	}

	h.dispatch(h.text("42", "250"))
	h.dispatch(h.text("42", "Boil everything."))
	h.dispatch(h.text("42", "yes"))
	h.dispatch(h.media("42", models.MediaVoice, "voice-ref-1"))
	h.sink.reset()
	h.dispatch(h.media("42", models.MediaPhoto, "photo-ref-1"))
	if !h.sink.contains("Recipe saved") {
		t.Fatalf("expected save confirmation, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("expected session ended after commit, got %d", h.liveSessions())
	}

	recipes, err := h.records.ListRecipesByOwner(context.Background(), "42")
	if err != nil || len(recipes) != 1 {
		t.Fatalf("expected one committed recipe, got %v, %v", recipes, err)
	}
	r := recipes[0]
	// The earlier invalid input must not have cost any collected fields.
	if r.Title != "Tomato Soup" || r.Ingredients != "tomato, salt" || r.CookingTime != 30 ||
		r.SkillLevel != "Beginner" || r.Calories != 250 || r.Instructions != "Boil everything." ||
		r.VoiceRef != "voice-ref-1" || r.PhotoRef != "photo-ref-1" {
		t.Errorf("committed recipe wrong: %+v", r)
	}
}

func TestRecipeCreateSkipBranches(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "add_recipe"))
	h.dispatch(h.text("42", "Plain Rice"))
	h.dispatch(h.text("42", "rice, water"))
	h.dispatch(h.text("42", "20"))
	h.dispatch(h.text("42", "Beginner"))
	h.dispatch(h.text("42", "150"))
	h.dispatch(h.text("42", "Boil the rice."))
	h.dispatch(h.text("42", "no"))
	h.dispatch(h.command("42", "skip"))

	recipes, _ := h.records.ListRecipesByOwner(context.Background(), "42")
	if len(recipes) != 1 {
		t.Fatalf("expected one recipe, got %d", len(recipes))
	}
	if recipes[0].VoiceRef != "" || recipes[0].PhotoRef != "" {
		t.Errorf("skipped media must stay empty: %+v", recipes[0])
	}
}

func TestRecipeCreateRequiresRegistration(t *testing.T) {
	h := newHarness(t)

	h.dispatch(h.command("999", "add_recipe"))
	if !h.sink.contains("register first") {
		t.Fatalf("expected registration refusal, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("refused entry must not open a session, got %d", h.liveSessions())
	}
}

func TestCancelFallback(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "add_recipe"))
	h.sink.reset()
	h.dispatch(h.command("42", "cancel"))
	if !h.sink.contains("cancelled") {
		t.Fatalf("expected cancel confirmation, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("cancel must delete the session, got %d", h.liveSessions())
	}
}

func TestBMIFlow(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "calculate_bmi"))

	// Invalid height re-prompts.
	h.sink.reset()
	h.dispatch(h.text("42", "tall"))
	if !h.sink.contains("valid number") {
		t.Fatalf("expected re-prompt, got %+v", h.sink.replies)
	}

	h.dispatch(h.text("42", "180"))
	h.sink.reset()
	h.dispatch(h.text("42", "72"))
	if !h.sink.contains("Your BMI: 22.2") {
		t.Fatalf("expected BMI 22.2, got %+v", h.sink.replies)
	}
	if !h.sink.contains("balanced diet") {
		t.Errorf("expected balanced band advice, got %+v", h.sink.replies)
	}

	profile, _ := h.records.GetProfile(context.Background(), "42")
	if profile.BMI < 22.1 || profile.BMI > 22.3 {
		t.Errorf("BMI not stored on profile: %+v", profile)
	}
}

func TestBMIAdviceBands(t *testing.T) {
	if !strings.Contains(bmiAdvice(17), "high-calorie") {
		t.Error("expected underweight advice below 18.5")
	}
	if !strings.Contains(bmiAdvice(22), "balanced") {
		t.Error("expected balanced advice below 25")
	}
	if !strings.Contains(bmiAdvice(28), "low-calorie") {
		t.Error("expected low-calorie advice at 25 and above")
	}
}

// countingStore records search calls on top of the in-memory store.
type countingStore struct {
	store.Store
	searchCalls int
}

func (c *countingStore) SearchRecipes(ctx context.Context, term string) ([]models.Recipe, error) {
	c.searchCalls++
	return c.Store.SearchRecipes(ctx, term)
}

func TestSearchFlow(t *testing.T) {
	records := &countingStore{Store: store.NewMemoryStore()}
	h := newHarnessWithStore(t, records)
	h.register("42", "alice")
	h.addRecipe("7", models.Recipe{Title: "Tomato Soup", Ingredients: "tomato", Instructions: "boil"})

	h.dispatch(h.command("42", "search_recipes"))

	// Too-short terms are rejected before the store is touched.
	h.sink.reset()
	h.dispatch(h.text("42", "x"))
	if !h.sink.contains("at least 2 characters") {
		t.Fatalf("expected short-term rejection, got %+v", h.sink.replies)
	}
	if records.searchCalls != 0 {
		t.Errorf("short term must not hit the store, got %d calls", records.searchCalls)
	}

	// A matching term lists results and stays in the query state.
	h.sink.reset()
	h.dispatch(h.text("42", "tomato"))
	if !h.sink.contains("1 results found") {
		t.Fatalf("expected results header, got %+v", h.sink.replies)
	}
	if records.searchCalls != 1 {
		t.Errorf("expected one search call, got %d", records.searchCalls)
	}
	if h.liveSessions() != 1 {
		t.Errorf("search must stay open for repeated queries, got %d sessions", h.liveSessions())
	}

	// No results keeps looping too.
	h.sink.reset()
	h.dispatch(h.text("42", "zzzzz"))
	if !h.sink.contains("No results") {
		t.Fatalf("expected empty-result message, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 1 {
		t.Errorf("search must stay open after empty results, got %d sessions", h.liveSessions())
	}
}

func TestEditFlow(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	id := h.addRecipe("42", models.Recipe{Title: "Old Title", Ingredients: "a", Instructions: "b", CookingTime: 10})

	h.dispatch(h.callback("42", EncodeEditEntry(id)))
	if !h.sink.contains("Which part of the recipe") {
		t.Fatalf("expected edit menu, got %+v", h.sink.replies)
	}

	// Pick the title field, then send the new value.
	h.sink.reset()
	h.dispatch(h.callback("42", EncodeEditField(id, editFieldTitle)))
	if !h.sink.contains("Enter the new title") {
		t.Fatalf("expected title prompt, got %+v", h.sink.replies)
	}
	h.sink.reset()
	h.dispatch(h.text("42", "New Title"))
	if !h.sink.contains("Title updated") {
		t.Fatalf("expected update confirmation, got %+v", h.sink.replies)
	}
	if !h.sink.contains("Which part of the recipe") {
		t.Errorf("expected return to menu, got %+v", h.sink.replies)
	}

	r, _ := h.records.GetRecipe(context.Background(), id)
	if r.Title != "New Title" {
		t.Errorf("title not persisted: %+v", r)
	}

	// A token for a different recipe id is rejected.
	h.sink.reset()
	h.dispatch(h.callback("42", EncodeEditField(id+100, editFieldTitle)))
	if !h.sink.contains("Invalid option") {
		t.Fatalf("expected rejection of mismatched token, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 1 {
		t.Errorf("mismatched token keeps the session, got %d", h.liveSessions())
	}

	// Cancel ends the session.
	h.sink.reset()
	h.dispatch(h.callback("42", EncodeEditField(id, editFieldCancel)))
	if !h.sink.contains("Editing cancelled") {
		t.Fatalf("expected cancel message, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("cancel must end the session, got %d", h.liveSessions())
	}
}

func TestEditFlowOwnershipCheck(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	h.register("7", "bob")
	id := h.addRecipe("42", models.Recipe{Title: "Alice's", Ingredients: "a", Instructions: "b"})

	h.dispatch(h.callback("7", EncodeEditEntry(id)))
	if !h.sink.contains("your own recipes") {
		t.Fatalf("expected ownership refusal, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("refused edit must not open a session, got %d", h.liveSessions())
	}
}

func TestEditFlowReentry(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	first := h.addRecipe("42", models.Recipe{Title: "First", Ingredients: "a", Instructions: "b"})
	second := h.addRecipe("42", models.Recipe{Title: "Second", Ingredients: "c", Instructions: "d"})

	h.dispatch(h.callback("42", EncodeEditEntry(first)))
	h.dispatch(h.callback("42", EncodeEditField(first, editFieldTitle)))

	// Starting over with another recipe restarts the flow cleanly.
	h.dispatch(h.callback("42", EncodeEditEntry(second)))
	if h.liveSessions() != 1 {
		t.Fatalf("reentry must keep one session, got %d", h.liveSessions())
	}
	h.sink.reset()
	h.dispatch(h.callback("42", EncodeEditField(second, editFieldTitle)))
	h.dispatch(h.text("42", "Renamed"))

	r, _ := h.records.GetRecipe(context.Background(), second)
	if r.Title != "Renamed" {
		t.Errorf("edit after reentry must hit the new recipe: %+v", r)
	}
	r, _ = h.records.GetRecipe(context.Background(), first)
	if r.Title != "First" {
		t.Errorf("first recipe must be untouched: %+v", r)
	}
}

func TestEditFlowRemovePhoto(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	id := h.addRecipe("42", models.Recipe{Title: "With Photo", Ingredients: "a", Instructions: "b", PhotoRef: "photo-1"})

	h.dispatch(h.callback("42", EncodeEditEntry(id)))
	h.sink.reset()
	h.dispatch(h.callback("42", EncodeEditField(id, editFieldRemovePhoto)))
	if !h.sink.contains("Photo removed") {
		t.Fatalf("expected removal confirmation, got %+v", h.sink.replies)
	}
	if h.liveSessions() != 0 {
		t.Errorf("media removal ends the session, got %d", h.liveSessions())
	}

	r, _ := h.records.GetRecipe(context.Background(), id)
	if r.PhotoRef != "" {
		t.Errorf("photo ref not cleared: %+v", r)
	}
}

func TestBanFlowInline(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("admin", "ban_user", "42", "spam"))
	if !h.sink.contains("User banned") {
		t.Fatalf("expected ban confirmation, got %+v", h.sink.replies)
	}
	registered, _ := h.records.IsRegistered(context.Background(), "42")
	if registered {
		t.Error("banned user must not be registered")
	}
	if h.liveSessions() != 0 {
		t.Errorf("inline ban must not open a session, got %d", h.liveSessions())
	}
	if len(h.notify.replies) != 1 || !strings.Contains(h.notify.replies[0].Text, "spam") {
		t.Errorf("notification must carry the inline reason, got %+v", h.notify.replies)
	}
}

func TestBanFlowCollectsReasonAndNotifies(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("admin", "ban_user"))
	h.dispatch(h.text("admin", "42"))
	h.sink.reset()
	h.dispatch(h.text("admin", "spamming recipes"))
	if !h.sink.contains("User banned") {
		t.Fatalf("expected ban confirmation, got %+v", h.sink.replies)
	}

	if len(h.notify.chatIDs) != 1 || h.notify.chatIDs[0] != "42" {
		t.Fatalf("expected ban notification to target, got %v", h.notify.chatIDs)
	}
	if !strings.Contains(h.notify.replies[0].Text, "spamming recipes") {
		t.Errorf("notification must carry the reason, got %+v", h.notify.replies[0])
	}
}

func TestBanFlowRejectsNonAdmin(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "ban_user", "7"))
	if !h.sink.contains("restricted to administrators") {
		t.Fatalf("expected admin refusal, got %+v", h.sink.replies)
	}
}

func TestViewRecipeShowsEditButtonForOwnerOnly(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	h.register("7", "bob")
	id := h.addRecipe("42", models.Recipe{Title: "Soup", Ingredients: "water", Instructions: "boil", PhotoRef: "photo-1"})

	h.dispatch(h.callback("42", EncodeView(id)))
	if !hasCallback(h.sink.replies, EncodeEditEntry(id)) {
		t.Error("owner view must include the edit button")
	}
	if !hasMedia(h.sink.replies, models.MediaPhoto, "photo-1") {
		t.Error("view must include the stored photo")
	}

	h.sink.reset()
	h.dispatch(h.callback("7", EncodeView(id)))
	if hasCallback(h.sink.replies, EncodeEditEntry(id)) {
		t.Error("non-owner view must not include the edit button")
	}
	if !hasCallback(h.sink.replies, EncodeFavorite(id)) {
		t.Error("view must include the favorite button")
	}
}

func TestFavoritesToggleAndListing(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	id := h.addRecipe("7", models.Recipe{Title: "Soup", Ingredients: "water", Instructions: "boil"})

	h.dispatch(h.callback("42", EncodeFavorite(id)))
	if !h.sink.contains("Added to favorites") {
		t.Fatalf("expected add confirmation, got %+v", h.sink.replies)
	}

	h.sink.reset()
	h.dispatch(h.command("42", "my_favorites"))
	if !h.sink.contains("Soup") {
		t.Fatalf("expected favorite listed, got %+v", h.sink.replies)
	}

	h.sink.reset()
	h.dispatch(h.callback("42", EncodeFavorite(id)))
	if !h.sink.contains("Removed from favorites") {
		t.Fatalf("expected remove confirmation, got %+v", h.sink.replies)
	}

	h.sink.reset()
	h.dispatch(h.command("42", "my_favorites"))
	if !h.sink.contains("not added any favorites") {
		t.Fatalf("expected empty favorites message, got %+v", h.sink.replies)
	}
}

func TestMyRecipesAndProfile(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "my_recipes"))
	if !h.sink.contains("not added any recipes") {
		t.Fatalf("expected empty listing, got %+v", h.sink.replies)
	}

	h.addRecipe("42", models.Recipe{Title: "Soup", Ingredients: "water", Instructions: "boil"})
	h.sink.reset()
	h.dispatch(h.command("42", "my_recipes"))
	if !h.sink.contains("Soup") {
		t.Fatalf("expected recipe listed, got %+v", h.sink.replies)
	}

	h.sink.reset()
	h.dispatch(h.command("42", "profile"))
	if !h.sink.contains("Username: alice") || !h.sink.contains("Status: active") {
		t.Fatalf("expected profile details, got %+v", h.sink.replies)
	}
}

func hasCallback(replies []models.Reply, token string) bool {
	for _, r := range replies {
		for _, row := range r.Keyboard {
			for _, b := range row {
				if b.Callback == token {
					return true
				}
			}
		}
	}
	return false
}

func hasMedia(replies []models.Reply, kind models.MediaKind, ref string) bool {
	for _, r := range replies {
		if r.Media != nil && r.Media.Kind == kind && r.Media.Ref == ref {
			return true
		}
	}
	return false
}

func TestViewRecipeButtonWorksDuringSearchSession(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")
	id := h.addRecipe("7", models.Recipe{Title: "Tomato Soup", Ingredients: "tomato", Instructions: "boil"})

	h.dispatch(h.command("42", "search_recipes"))
	h.sink.reset()
	h.dispatch(h.text("42", "tomato"))
	if !h.sink.contains("1 results found") {
		t.Fatalf("expected search results, got %+v", h.sink.replies)
	}

	// Tapping a result's view button mid-search reaches the view flow
	// instead of being swallowed by the open search session.
	h.sink.reset()
	h.dispatch(h.callback("42", EncodeView(id)))
	if !h.sink.contains("Tomato Soup") || !h.sink.contains("Instructions:") {
		t.Fatalf("expected full recipe view, got %+v", h.sink.replies)
	}

	// The search session survives and keeps accepting terms.
	if h.liveSessions() != 1 {
		t.Fatalf("expected search session to survive, got %d", h.liveSessions())
	}
	h.sink.reset()
	h.dispatch(h.text("42", "soup"))
	if !h.sink.contains("results found") {
		t.Errorf("expected search to continue, got %+v", h.sink.replies)
	}
}

func TestHelpCommandWorksDuringRecipeCreate(t *testing.T) {
	h := newHarness(t)
	h.register("42", "alice")

	h.dispatch(h.command("42", "add_recipe"))
	h.sink.reset()
	h.dispatch(h.command("42", "help"))
	if !h.sink.contains("Recipe manager commands") {
		t.Fatalf("expected help text, got %+v", h.sink.replies)
	}

	// The creation session is untouched and still expects the title.
	if h.liveSessions() != 1 {
		t.Fatalf("expected creation session to survive, got %d", h.liveSessions())
	}
	h.sink.reset()
	h.dispatch(h.text("42", "Tomato Soup"))
	if !h.sink.contains("enter the ingredients") {
		t.Errorf("expected ingredients prompt, got %+v", h.sink.replies)
	}
}

package parser

import (
	"strings"
	"testing"
)

const wellFormedRecipes = `Here are some recipes I found for you!

[RECIPE_START]
NAME: Tamales Oaxaqueños
HERITAGE: Oaxacan / Zapotec
SUMMARY: Banana-leaf wrapped tamales with mole negro.
HISTORY: Tamales predate the Spanish conquest and remain central to Day of the Dead observances.
INGREDIENTS_USED: masa harina; pork shoulder; mole negro; banana leaves
APPLIANCES_USED: steamer; blender
TIME_ESTIMATE: 90
SOURCE_URL: https://example.com/tamales
THUMBNAIL_URL: https://example.com/tamales.jpg
[RECIPE_END]

[RECIPE_START]
NAME: Jollof Rice
HERITAGE: West African
SUMMARY: One-pot tomato rice.
INGREDIENTS_USED: rice; tomatoes; scotch bonnet
TIME_ESTIMATE: 45
SOURCE_URL: https://example.com/jollof
[RECIPE_END]

Hope these help!`

func TestParseRecipes_WellFormed(t *testing.T) {
	recipes := ParseRecipes(wellFormedRecipes)
	if len(recipes) != 2 {
		t.Fatalf("ParseRecipes returned %d recipes, want 2", len(recipes))
	}

	first := recipes[0]
	if first.Name != "Tamales Oaxaqueños" {
		t.Errorf("first.Name = %q, want %q", first.Name, "Tamales Oaxaqueños")
	}
	if first.Heritage != "Oaxacan / Zapotec" {
		t.Errorf("first.Heritage = %q", first.Heritage)
	}
	if len(first.Ingredients) != 4 || first.Ingredients[0] != "masa harina" {
		t.Errorf("first.Ingredients = %v", first.Ingredients)
	}
	if len(first.Appliances) != 2 || first.Appliances[1] != "blender" {
		t.Errorf("first.Appliances = %v", first.Appliances)
	}
	if first.ThumbnailURL != "https://example.com/tamales.jpg" {
		t.Errorf("first.ThumbnailURL = %q", first.ThumbnailURL)
	}

	second := recipes[1]
	if second.Name != "Jollof Rice" {
		t.Errorf("second.Name = %q, want %q", second.Name, "Jollof Rice")
	}
	if second.ThumbnailURL != "" {
		t.Errorf("second.ThumbnailURL = %q, want empty", second.ThumbnailURL)
	}
}

func TestParseRecipes_NoMarkers(t *testing.T) {
	recipes := ParseRecipes("I'm sorry, I couldn't find any recipes matching that.")
	if len(recipes) != 0 {
		t.Errorf("ParseRecipes on marker-free text returned %d recipes, want 0", len(recipes))
	}
}

func TestParseRecipes_EmptyInput(t *testing.T) {
	if got := ParseRecipes(""); len(got) != 0 {
		t.Errorf("ParseRecipes(\"\") returned %d recipes, want 0", len(got))
	}
}

func TestParseRecipes_NamelessBlockDropped(t *testing.T) {
	text := "[RECIPE_START]\nSUMMARY: A dish with no name.\n[RECIPE_END]\n" +
		"[RECIPE_START]\nNAME: Pho\n[RECIPE_END]"
	recipes := ParseRecipes(text)
	if len(recipes) != 1 {
		t.Fatalf("ParseRecipes returned %d recipes, want 1", len(recipes))
	}
	if recipes[0].Name != "Pho" {
		t.Errorf("kept recipe Name = %q, want %q", recipes[0].Name, "Pho")
	}
}

func TestParseRecipes_UnknownLinesIgnored(t *testing.T) {
	text := "[RECIPE_START]\nNAME: Bibimbap\nNOTE: the model felt chatty here\nHERITAGE: Korean\n[RECIPE_END]"
	recipes := ParseRecipes(text)
	if len(recipes) != 1 {
		t.Fatalf("ParseRecipes returned %d recipes, want 1", len(recipes))
	}
	if recipes[0].Heritage != "Korean" {
		t.Errorf("Heritage = %q, want %q (unknown line must not disturb later fields)", recipes[0].Heritage, "Korean")
	}
}

func TestParseRecipes_RepeatedFieldLastWins(t *testing.T) {
	text := "[RECIPE_START]\nNAME: Draft\nNAME: Final\n[RECIPE_END]"
	recipes := ParseRecipes(text)
	if len(recipes) != 1 {
		t.Fatalf("ParseRecipes returned %d recipes, want 1", len(recipes))
	}
	if recipes[0].Name != "Final" {
		t.Errorf("Name = %q, want %q (last assignment wins)", recipes[0].Name, "Final")
	}
}

func TestParseRecipes_MissingEndMarker(t *testing.T) {
	text := "[RECIPE_START]\nNAME: Unfinished Stew\nTIME_ESTIMATE: 30"
	recipes := ParseRecipes(text)
	if len(recipes) != 1 {
		t.Fatalf("ParseRecipes returned %d recipes, want 1", len(recipes))
	}
	if recipes[0].TimeEstimate != "30" {
		t.Errorf("TimeEstimate = %q, want %q", recipes[0].TimeEstimate, "30")
	}
}

func TestParseRecipes_TimeBoundNotEnforced(t *testing.T) {
	// The user's max-time bound lives in the prompt, not the parser. A recipe
	// over the bound still parses verbatim.
	text := "[RECIPE_START]\nNAME: Tamales\nTIME_ESTIMATE: 90\n[RECIPE_END]"
	recipes := ParseRecipes(text)
	if len(recipes) != 1 {
		t.Fatalf("ParseRecipes returned %d recipes, want 1", len(recipes))
	}
	if recipes[0].Name != "Tamales" || recipes[0].TimeEstimate != "90" {
		t.Errorf("got name=%q time=%q, want Tamales/90", recipes[0].Name, recipes[0].TimeEstimate)
	}
}

func TestSplitList_EmptySegmentsDropped(t *testing.T) {
	got := splitList("a;;b;")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList(\"a;;b;\") = %v, want [a b]", got)
	}
}

func TestSplitList_TrimsElements(t *testing.T) {
	got := splitList("  rice ;  tomatoes  ")
	if len(got) != 2 || got[0] != "rice" || got[1] != "tomatoes" {
		t.Errorf("splitList = %v, want [rice tomatoes]", got)
	}
}

func TestCleanRecordURL_Valid(t *testing.T) {
	got, ok := CleanRecordURL("https://x.com/a.jpg")
	if !ok || got != "https://x.com/a.jpg" {
		t.Errorf("CleanRecordURL = %q, %v; want https://x.com/a.jpg, true", got, ok)
	}
}

func TestCleanRecordURL_StripsParens(t *testing.T) {
	got, ok := CleanRecordURL("(https://x.com/a.jpg)")
	if !ok || got != "https://x.com/a.jpg" {
		t.Errorf("CleanRecordURL = %q, %v; want https://x.com/a.jpg, true", got, ok)
	}
}

func TestCleanRecordURL_RejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"ftp://x", "", "not a url"} {
		if got, ok := CleanRecordURL(raw); ok {
			t.Errorf("CleanRecordURL(%q) = %q, accepted; want rejection", raw, got)
		}
	}
}

func TestParseBusinesses_WellFormed(t *testing.T) {
	text := strings.Join([]string{
		"[BUSINESS_START]",
		"NAME: La Morenita Market",
		"HERITAGE: Oaxacan",
		"SUMMARY: Family-run grocer stocking mole pastes and chapulines.",
		"SIGNIFICANCE: One of the oldest Oaxacan groceries in the neighborhood.",
		"ADDRESS: 3214 E 1st St, Los Angeles, CA 90063",
		"WEBSITE: https://example.com/lamorenita",
		"WHEELCHAIR_ACCESSIBLE: yes",
		"[BUSINESS_END]",
	}, "\n")

	businesses := ParseBusinesses(text)
	if len(businesses) != 1 {
		t.Fatalf("ParseBusinesses returned %d businesses, want 1", len(businesses))
	}
	b := businesses[0]
	if b.Name != "La Morenita Market" {
		t.Errorf("Name = %q", b.Name)
	}
	if b.Address != "3214 E 1st St, Los Angeles, CA 90063" {
		t.Errorf("Address = %q", b.Address)
	}
	if b.WheelchairAccessible != "yes" {
		t.Errorf("WheelchairAccessible = %q, want yes", b.WheelchairAccessible)
	}
	if b.ParkingSpots != "" {
		t.Errorf("ParkingSpots = %q, want empty (field absent)", b.ParkingSpots)
	}
}

func TestParseBusinesses_RecipeMarkersNotRecognized(t *testing.T) {
	businesses := ParseBusinesses(wellFormedRecipes)
	if len(businesses) != 0 {
		t.Errorf("ParseBusinesses on recipe text returned %d businesses, want 0", len(businesses))
	}
}

func TestParseRecipes_InvalidThumbnailDoesNotClobberValid(t *testing.T) {
	text := "[RECIPE_START]\nNAME: Arepas\nTHUMBNAIL_URL: https://x.com/a.jpg\nTHUMBNAIL_URL: not a url\n[RECIPE_END]"
	recipes := ParseRecipes(text)
	if len(recipes) != 1 {
		t.Fatalf("ParseRecipes returned %d recipes, want 1", len(recipes))
	}
	if recipes[0].ThumbnailURL != "https://x.com/a.jpg" {
		t.Errorf("ThumbnailURL = %q, want earlier valid value kept", recipes[0].ThumbnailURL)
	}
}

package world

import (
	"regexp"
	"testing"

	"tradepost.gg/internal/sim/catalogs"
)

func presetWorld(t *testing.T) *World {
	t.Helper()
	cats := testCatalogs()
	limited := 6
	cats.Presets.ByID["outfitter"] = catalogs.PresetDef{
		ID:       "outfitter",
		Currency: "credits",
		Catalog: map[string]map[string][]catalogs.PresetEntry{
			"BUY": {
				"MEDICAL": {{Proto: "MEDKIT", Price: 45, Count: &limited}},
				"GEAR":    {{Proto: "POUCH", Price: 12.5}},
			},
			"SELL": {
				"SALVAGE": {{Proto: "GEM", Price: 2}},
			},
		},
	}
	w, err := New(Config{ID: "test", TickRateHz: 5, Seed: 1}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func TestLoadStorePreset_PopulatesStore(t *testing.T) {
	w := presetWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}, Preset: "outfitter"})

	if len(store.CurrencyWhitelist) != 1 || store.CurrencyWhitelist[0] != "credits" {
		t.Fatalf("whitelist = %v", store.CurrencyWhitelist)
	}
	if len(store.Listings) != 3 {
		t.Fatalf("listings = %d, want 3", len(store.Listings))
	}
	for _, want := range []string{"GEAR", "MEDICAL", "SALVAGE"} {
		if !containsString(store.Categories, want) {
			t.Fatalf("categories %v missing %s", store.Categories, want)
		}
	}

	idPattern := regexp.MustCompile(`^(BUY|SELL)_[A-Z]+_[A-Z_]+_\d{1,5}$`)
	for _, l := range store.Listings {
		if !idPattern.MatchString(l.ID) {
			t.Fatalf("listing id %q does not match generated pattern", l.ID)
		}
		if l.Cost["credits"] == 0 {
			t.Fatalf("listing %s missing credits price", l.ID)
		}
		switch l.ProductEntity {
		case "MEDKIT":
			if l.Mode != ModeBuy || l.RemainingCount != 6 {
				t.Fatalf("medkit listing: %+v", l)
			}
		case "POUCH":
			if l.Mode != ModeBuy || l.RemainingCount != -1 {
				t.Fatalf("pouch listing must be unlimited: %+v", l)
			}
		case "GEM":
			if l.Mode != ModeSell {
				t.Fatalf("gem listing must be sell-mode: %+v", l)
			}
		default:
			t.Fatalf("unexpected product %s", l.ProductEntity)
		}
	}
}

func TestLoadStorePreset_ReloadReplacesListings(t *testing.T) {
	w := presetWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}, Preset: "outfitter"})

	store.Listings[0].RemainingCount = 0
	w.loadStorePreset(store, "reload")

	if len(store.Listings) != 3 {
		t.Fatalf("reload must replace, not append: %d listings", len(store.Listings))
	}
	for _, l := range store.Listings {
		if l.ProductEntity == "MEDKIT" && l.RemainingCount != 6 {
			t.Fatalf("reload must restore stock: %+v", l)
		}
	}
}

func TestLoadStorePreset_UnknownOrMissingIsNoop(t *testing.T) {
	w := presetWorld(t)

	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}, Preset: "no-such"})
	if len(store.Listings) != 0 || len(store.CurrencyWhitelist) != 0 {
		t.Fatalf("unknown preset must leave store empty: %+v", store)
	}

	bare := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 2}})
	bare.CurrencyWhitelist = []string{"gems"}
	w.loadStorePreset(bare, "manual")
	if len(bare.CurrencyWhitelist) != 1 || bare.CurrencyWhitelist[0] != "gems" {
		t.Fatalf("presetless store must keep manual config: %v", bare.CurrencyWhitelist)
	}
}

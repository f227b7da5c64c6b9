package world

import (
	"fmt"
	"sort"
)

func parseStoreMode(s string) StoreMode {
	if s == string(ModeSell) {
		return ModeSell
	}
	return ModeBuy
}

// loadStorePreset replaces the store's whitelist, categories and listings
// with the named preset's catalog. A store without a preset stays as-is
// for manual configuration; an unknown preset is logged and skipped.
func (w *World) loadStorePreset(store *Store, reason string) {
	if store.Preset == "" {
		w.logf("store %s: no preset (%s)", store.ID, reason)
		return
	}

	preset, ok := w.cats.Presets.ByID[store.Preset]
	if !ok {
		w.logf("store %s: preset %q not found (%s)", store.ID, store.Preset, reason)
		return
	}

	store.CurrencyWhitelist = store.CurrencyWhitelist[:0]
	store.Categories = store.Categories[:0]
	store.Listings = store.Listings[:0]

	store.CurrencyWhitelist = append(store.CurrencyWhitelist, preset.Currency)

	count := 0
	modeKeys := make([]string, 0, len(preset.Catalog))
	for k := range preset.Catalog {
		modeKeys = append(modeKeys, k)
	}
	sort.Strings(modeKeys)

	for _, modeStr := range modeKeys {
		mode := parseStoreMode(modeStr)
		categories := preset.Catalog[modeStr]

		catKeys := make([]string, 0, len(categories))
		for k := range categories {
			catKeys = append(catKeys, k)
		}
		sort.Strings(catKeys)

		for _, category := range catKeys {
			if !containsString(store.Categories, category) {
				store.Categories = append(store.Categories, category)
			}

			for _, entry := range categories[category] {
				remaining := -1
				if entry.Count != nil {
					remaining = *entry.Count
				}

				id := fmt.Sprintf("%s_%s_%s_%d", mode, category, entry.Proto, w.rand.Intn(100000))
				store.Listings = append(store.Listings, &Listing{
					ID:             id,
					ProductEntity:  entry.Proto,
					Cost:           map[string]float64{preset.Currency: entry.Price},
					Mode:           mode,
					RemainingCount: remaining,
					Categories:     []string{category},
				})
				count++
			}
		}
	}

	w.logf("store %s: loaded %d listings (preset=%s, reason=%s)", store.ID, count, store.Preset, reason)
	w.auditTrade(AuditEntry{Store: store.ID, Kind: "PRESET_LOAD", Count: count, Reason: reason})
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

package world

// EvaluateAccess reports whether the actor's tag set satisfies any of the
// required sets (OR of ANDs). A reader with no required sets admits everyone.
func EvaluateAccess(lists [][]string, tags map[string]bool) bool {
	if len(lists) == 0 {
		return true
	}
	for _, req := range lists {
		matched := true
		for _, t := range req {
			if !tags[t] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// accessTagsFor collects every access tag the user is granted, by the user
// entity itself and by anything it carries.
func (w *World) accessTagsFor(user EntityID) map[string]bool {
	tags := map[string]bool{}
	if e := w.entities[user]; e != nil {
		for _, t := range e.Grants {
			tags[t] = true
		}
	}
	for _, id := range w.enumerateItems(user) {
		e := w.entities[id]
		if e == nil {
			continue
		}
		for _, t := range e.Grants {
			tags[t] = true
		}
	}
	return tags
}

// expandAccessPolicy turns the store's fallback policy into reader-style
// required sets. Inside a group, plain levels accumulate into one AND set;
// a group alias flushes the pending set and contributes each of its levels
// as its own alternative. Empty groups and unknown tokens are skipped with
// a diagnostic.
func (w *World) expandAccessPolicy(storeID string, policy [][]string) [][]string {
	var lists [][]string
	for _, group := range policy {
		var set []string
		for _, token := range group {
			if _, ok := w.cats.Access.Levels[token]; ok {
				set = append(set, token)
				continue
			}
			if grp, ok := w.cats.Access.Groups[token]; ok {
				if len(grp.Tags) == 0 {
					w.logf("access: empty access group %q on %s; skipping", token, storeID)
					continue
				}
				if len(set) > 0 {
					lists = append(lists, set)
					set = nil
				}
				for _, lvl := range grp.Tags {
					lists = append(lists, []string{lvl})
				}
				continue
			}
			w.logf("access: unknown access token %q on %s; skipping", token, storeID)
		}
		if len(set) > 0 {
			lists = append(lists, set)
		}
	}
	return lists
}

// isAccessAllowed prefers the entity's native access reader; without one it
// falls back to the store's own policy. A fallback policy that expands to
// nothing denies (fail closed). A store with no policy at all admits everyone.
func (w *World) isAccessAllowed(store *Store, user EntityID) bool {
	ent := w.entities[store.Entity]
	if ent != nil && ent.AccessLists != nil {
		return EvaluateAccess(ent.AccessLists, w.accessTagsFor(user))
	}

	if len(store.Access) > 0 {
		lists := w.expandAccessPolicy(store.ID, store.Access)
		if len(lists) == 0 {
			w.logf("access: all access groups invalid/empty on %s; denying", store.ID)
			return false
		}
		return EvaluateAccess(lists, w.accessTagsFor(user))
	}

	return true
}

package catalog

import "strings"

// LegacyPublicID marks images that were added by URL only. They are not owned
// by the image store, so nothing is destroyed for them.
const LegacyPublicID = "legacy-manual-import"

// EnsureMainImage leaves exactly one image flagged as main when the list is
// non-empty: the first flagged one wins, or the first image if none is flagged.
func EnsureMainImage(images []Image) []Image {
	if len(images) == 0 {
		return images
	}
	out := make([]Image, len(images))
	copy(out, images)

	mainAt := -1
	for i := range out {
		if out[i].IsMain && mainAt == -1 {
			mainAt = i
		}
		out[i].IsMain = false
	}
	if mainAt == -1 {
		mainAt = 0
	}
	out[mainAt].IsMain = true
	return out
}

// withoutImage drops every image whose publicId matches.
func withoutImage(images []Image, publicID string) []Image {
	out := images[:0:0]
	for _, img := range images {
		if img.PublicID != publicID {
			out = append(out, img)
		}
	}
	return out
}

// NormalizeNames trims entries, drops blanks and exact duplicates, and keeps
// the first occurrence's position.
func NormalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// uniqueIDs de-duplicates ids keeping order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffIDs returns the ids present in next but not prev, and those present in
// prev but not next.
func diffIDs(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		inPrev[id] = struct{}{}
	}
	inNext := make(map[string]struct{}, len(next))
	for _, id := range next {
		inNext[id] = struct{}{}
		if _, ok := inPrev[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if _, ok := inNext[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}

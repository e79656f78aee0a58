package database

import "strings"

// JoinTags encodes tags the way the legacy SQL schema stored them.
// A tag containing a comma cannot survive a JoinTags/SplitTags round trip.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags decodes a legacy comma-joined tag column. The empty string is no tags.
func SplitTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

// normalizeTags guarantees a non-nil slice so JSON encodes [] rather than null.
func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Package linkmark implements the inline link-marker convention used inside
// human-readable messages such as decline reasons. A marker of the form
// [LINK:<postID>:<displayText>] embeds a clickable post reference in plain
// text; downstream UI parses the marker into a link.
package linkmark

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	prefix = "[LINK:"
	suffix = "]"
)

// SegmentKind distinguishes plain text from link segments.
type SegmentKind int

const (
	// KindText is a run of plain text.
	KindText SegmentKind = iota
	// KindLink is a parsed link marker.
	KindLink
)

// Segment is one parsed piece of a marked-up string.
type Segment struct {
	Kind   SegmentKind
	Text   string // plain text, or the link's display text
	PostID uint   // set for KindLink
}

// Format renders a link marker for the given post.
func Format(postID uint, displayText string) string {
	return fmt.Sprintf("%s%d:%s%s", prefix, postID, displayText, suffix)
}

// Parse splits a marked-up string into text and link segments. Malformed
// markers are left in place as plain text rather than dropped, so a parse
// never loses content.
func Parse(s string) []Segment {
	var segments []Segment
	for len(s) > 0 {
		start := strings.Index(s, prefix)
		if start < 0 {
			segments = append(segments, Segment{Kind: KindText, Text: s})
			break
		}
		end := strings.Index(s[start:], suffix)
		if end < 0 {
			segments = append(segments, Segment{Kind: KindText, Text: s})
			break
		}
		end += start

		body := s[start+len(prefix) : end]
		id, text, ok := splitMarker(body)
		if !ok {
			// Emit everything through the malformed marker as text and
			// keep scanning after it.
			segments = append(segments, Segment{Kind: KindText, Text: s[:end+1]})
			s = s[end+1:]
			continue
		}

		if start > 0 {
			segments = append(segments, Segment{Kind: KindText, Text: s[:start]})
		}
		segments = append(segments, Segment{Kind: KindLink, Text: text, PostID: id})
		s = s[end+1:]
	}
	return segments
}

// ContainsLink reports whether s contains at least one well-formed marker
// referencing the given post.
func ContainsLink(s string, postID uint) bool {
	for _, seg := range Parse(s) {
		if seg.Kind == KindLink && seg.PostID == postID {
			return true
		}
	}
	return false
}

func splitMarker(body string) (uint, string, bool) {
	idx := strings.Index(body, ":")
	if idx <= 0 {
		return 0, "", false
	}
	id, err := strconv.ParseUint(body[:idx], 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint(id), body[idx+1:], true
}

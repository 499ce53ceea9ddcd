package stats

import (
	"regexp"
	"strings"
)

// Window titles carry the document being worked on in app-specific
// shapes. These patterns are matched in order; first hit wins.
var (
	bracketFilePattern = regexp.MustCompile(`\[([^\]]+\.[a-zA-Z0-9]+)\]`)
	cyclonePattern     = regexp.MustCompile(`^(.+?)\s*-\s*Cyclone 3DR`)
	revitPattern       = regexp.MustCompile(`^(.+?)\s*-\s*(?:Autodesk\s+)?Revit`)
	blenderPattern     = regexp.MustCompile(`(.+?\.blend)`)
	teamsChatPattern   = regexp.MustCompile(`Chat\s*\|\s*([^|]+?)\s*\|`)
	slackPattern       = regexp.MustCompile(`^(#[^|]+?)\s*\|`)
	zoomPattern        = regexp.MustCompile(`^Zoom Meeting\s*-\s*(.+)`)
	genericFilePattern = regexp.MustCompile(`([\w][\w .()\-]*\.[a-zA-Z0-9]{1,5})\b`)
)

// FileToken extracts the file or conversation a window title refers to.
// Returns "" when no recognizable token is present.
func FileToken(title string) string {
	if title == "" {
		return ""
	}

	// CAD-style titles put the document in brackets.
	if m := bracketFilePattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := cyclonePattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := revitPattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.Contains(title, "Blender") {
		if m := blenderPattern.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := teamsChatPattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := slackPattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := zoomPattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := genericFilePattern.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

package voice

import (
	"strings"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

type roomType struct {
	Type    string
	Label   string
	Aliases []string
}

var knownRoomTypes = []roomType{
	{Type: "kitchen", Label: "Kitchen", Aliases: []string{"kitchen", "kitchenette", "cooking area"}},
	{Type: "bathroom", Label: "Bathroom", Aliases: []string{"bathroom", "bath room", "shower room", "washroom"}},
	{Type: "ensuite", Label: "En-suite", Aliases: []string{"ensuite", "en-suite", "en suite"}},
	{Type: "wc", Label: "WC", Aliases: []string{"wc", "toilet", "cloakroom", "downstairs loo", "loo"}},
	{Type: "bedroom", Label: "Bedroom", Aliases: []string{"bedroom", "bed room", "spare room", "nursery"}},
	{Type: "living_room", Label: "Living room", Aliases: []string{"living room", "lounge", "sitting room", "front room", "family room"}},
	{Type: "dining_room", Label: "Dining room", Aliases: []string{"dining room", "dining area", "diner"}},
	{Type: "hallway", Label: "Hallway", Aliases: []string{"hallway", "hall", "entrance", "porch", "landing", "stairs", "staircase"}},
	{Type: "utility", Label: "Utility room", Aliases: []string{"utility", "laundry", "boot room"}},
	{Type: "office", Label: "Office", Aliases: []string{"office", "study", "home office"}},
	{Type: "conservatory", Label: "Conservatory", Aliases: []string{"conservatory", "sun room", "orangery"}},
	{Type: "loft", Label: "Loft", Aliases: []string{"loft", "attic"}},
	{Type: "garage", Label: "Garage", Aliases: []string{"garage", "carport"}},
	{Type: "garden", Label: "Garden", Aliases: []string{"garden", "patio", "yard", "outside", "exterior", "driveway"}},
	{Type: "cellar", Label: "Cellar", Aliases: []string{"cellar", "basement"}},
}

// matchRoomType maps spoken text to a known room type. Unknown text becomes a custom
// room carrying the spoken words as its label.
func matchRoomType(text string) (typ, label string) {
	spoken := strings.TrimSpace(text)
	norm := normalize(spoken)
	if norm == "" {
		return sitevisit.RoomTypeCustom, ""
	}
	best := -1
	bestLen := 0
	for i, rt := range knownRoomTypes {
		if norm == rt.Type || norm == normalize(rt.Label) {
			return rt.Type, rt.Label
		}
		for _, a := range rt.Aliases {
			if norm == a {
				return rt.Type, rt.Label
			}
			if containsWord(norm, a) && len(a) > bestLen {
				best, bestLen = i, len(a)
			}
		}
	}
	if best >= 0 {
		rt := knownRoomTypes[best]
		if onlyFillers(strings.Replace(" "+norm+" ", " "+rt.Aliases[aliasIndex(rt, norm)]+" ", " ", 1)) {
			return rt.Type, rt.Label
		}
		// "back bedroom" keeps the qualifier the technician used.
		return rt.Type, capitalize(spoken)
	}
	return sitevisit.RoomTypeCustom, capitalize(spoken)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// containsWord reports whether phrase appears in s on word boundaries.
func containsWord(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	padded := " " + s + " "
	return strings.Contains(padded, " "+phrase+" ")
}

func capitalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var fillerWords = map[string]bool{"the": true, "a": true, "an": true, "new": true, "room": true, "please": true}

func onlyFillers(s string) bool {
	for _, w := range strings.Fields(s) {
		if !fillerWords[w] {
			return false
		}
	}
	return true
}

// aliasIndex returns the longest alias of rt found in norm.
func aliasIndex(rt roomType, norm string) int {
	idx, n := 0, 0
	for i, a := range rt.Aliases {
		if containsWord(norm, a) && len(a) > n {
			idx, n = i, len(a)
		}
	}
	return idx
}

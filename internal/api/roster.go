package api

import (
	"strings"

	"github.com/pefman/pokedex-duel/internal/models"
)

// ParseRoster parses the "identifier:sprite" listing, one entry per line.
// Blank lines and lines without both parts are skipped.
func ParseRoster(text string) []models.RosterEntry {
	lines := strings.Split(text, "\n")
	out := make([]models.RosterEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, sprite, ok := strings.Cut(line, ":")
		id, sprite = strings.TrimSpace(id), strings.TrimSpace(sprite)
		if !ok || id == "" || sprite == "" {
			continue
		}
		out = append(out, models.RosterEntry{ID: id, Sprite: sprite})
	}
	return out
}

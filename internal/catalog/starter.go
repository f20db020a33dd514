package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
)

// Starter is a small built-in level set for local runs and empty databases.
func Starter() []engine.Level {
	return []engine.Level{
		level("starter-1", "STARED", "STAR", "RATE", "DARE", "READ", "TEAR", "STARE", "TREAD", "STARED"),
		level("starter-2", "PLANET", "PLAN", "LATE", "PANEL", "PLANT", "PLATE", "LEAN", "PLANET"),
		level("starter-3", "GARDEN", "RANGE", "DANGER", "GARDEN", "DEAR", "GRAND", "RAGE", "AGED"),
		level("starter-4", "SILVER", "LIVE", "LIVER", "SILVER", "EVIL", "RISE", "VILE", "SLIVER"),
	}
}

func level(id, pool string, words ...string) engine.Level {
	l := engine.Level{ID: id, Letters: strings.Split(pool, "")}
	for _, w := range words {
		l.Words = append(l.Words, engine.Word{Text: w, Length: utf8.RuneCountInString(w)})
	}
	return l
}

package models

import (
	"fmt"
	"strings"
)

// BattleTag identifies a Battle.net account, e.g. "Name#1234".
type BattleTag string

// Normalize returns the account form used in API paths: "Name#1234" becomes "Name-1234".
// Tags already in dashed form pass through unchanged.
func (t BattleTag) Normalize() string {
	return strings.ReplaceAll(strings.TrimSpace(string(t)), "#", "-")
}

// Valid reports whether the tag is non-blank.
func (t BattleTag) Valid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Display returns the "Name#1234" form, restoring the last dash of a normalized tag.
func (t BattleTag) Display() string {
	s := strings.TrimSpace(string(t))
	if strings.Contains(s, "#") {
		return s
	}
	if i := strings.LastIndex(s, "-"); i > 0 {
		return s[:i] + "#" + s[i+1:]
	}
	return s
}

// Key is the case-insensitive identity used for storage.
func (t BattleTag) Key() string {
	return strings.ToLower(t.Normalize())
}

func (t BattleTag) String() string {
	return string(t)
}

// Difficulty is one of the four game difficulties.
type Difficulty string

const (
	Normal    Difficulty = "normal"
	Nightmare Difficulty = "nightmare"
	Hell      Difficulty = "hell"
	Inferno   Difficulty = "inferno"
)

// Difficulties lists difficulties from easiest to hardest.
var Difficulties = []Difficulty{Normal, Nightmare, Hell, Inferno}

func (d Difficulty) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// ActLabel formats a 1-based act number as a roman numeral label.
func ActLabel(act int) string {
	numerals := []string{"I", "II", "III", "IV"}
	if act < 1 || act > len(numerals) {
		return fmt.Sprintf("Act %d", act)
	}
	return "Act " + numerals[act-1]
}

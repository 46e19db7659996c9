package discord

import (
	"fmt"
	"strings"

	"github.com/tnicklin/nephalem/models"
)

// Discord ANSI escape codes for code blocks
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiGray   = "\033[90m"
)

const difficultyColumnWidth = len("Nightmare")

// ClassNames maps API class slugs to display names.
var ClassNames = map[string]string{
	"barbarian":    "Barbarian",
	"crusader":     "Crusader",
	"demon-hunter": "Demon Hunter",
	"monk":         "Monk",
	"necromancer":  "Necromancer",
	"witch-doctor": "Witch Doctor",
	"wizard":       "Wizard",
}

// ClassName returns the display name of a class slug, falling back to the slug itself.
func ClassName(slug string) string {
	if name, ok := ClassNames[slug]; ok {
		return name
	}
	return slug
}

// ActCell returns the plain display of one act, e.g. "[III]".
func ActCell(act int) string {
	return "[" + strings.TrimPrefix(models.ActLabel(act), "Act ") + "]"
}

// ActCellColored returns the act cell for ANSI code blocks.
// Green for completed acts, gray otherwise.
func ActCellColored(act int, completed bool) string {
	if completed {
		return ansiGreen + ActCell(act) + ansiReset
	}
	return ansiGray + ActCell(act) + ansiReset
}

// ProgressionLine renders one difficulty row, padded so rows align.
func ProgressionLine(d models.Difficulty, acts models.ActProgression) string {
	var sb strings.Builder
	title := d.Title()
	sb.WriteString(title)
	sb.WriteString(strings.Repeat(" ", difficultyColumnWidth-len(title)))
	for i, done := range acts.Acts() {
		sb.WriteString(" ")
		sb.WriteString(ActCellColored(i+1, done))
	}
	return sb.String()
}

// ProgressionBlock renders act completion for every difficulty as an ANSI code block.
func ProgressionBlock(label string, p models.Progression) string {
	var sb strings.Builder
	sb.WriteString("```ansi\n")
	if label != "" {
		sb.WriteString(ansiYellow + label + ansiReset + "\n")
	}
	for _, d := range models.Difficulties {
		sb.WriteString(ProgressionLine(d, p.For(d)))
		sb.WriteString("\n")
	}
	sb.WriteString("```")
	return sb.String()
}

// HighestCompleted describes the furthest completed act, e.g. "Nightmare Act II".
func HighestCompleted(p models.Progression) string {
	d, act, ok := p.Highest()
	if !ok {
		return "none"
	}
	return fmt.Sprintf("%s %s", d.Title(), models.ActLabel(act))
}

// HeroStatus returns the colored status tag of a hero for ANSI code blocks.
func HeroStatus(hardcore, seasonal, dead bool) string {
	var tags []string
	if seasonal {
		tags = append(tags, ansiYellow+"S"+ansiReset)
	}
	if hardcore {
		if dead {
			tags = append(tags, ansiRed+"HC dead"+ansiReset)
		} else {
			tags = append(tags, ansiRed+"HC"+ansiReset)
		}
	}
	return strings.Join(tags, " ")
}

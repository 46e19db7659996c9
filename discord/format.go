package discord

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tnicklin/nephalem/models"
	"github.com/tnicklin/nephalem/tracker"
)

const maxMessageLen = 2000

func formatCareer(c *models.Career, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**%s**", models.BattleTag(c.BattleTag).Display()))
	if c.GuildName != "" {
		sb.WriteString(" <" + c.GuildName + ">")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Paragon %s · Hardcore %s · Season %s · Season HC %s\n",
		humanize.Comma(int64(c.ParagonLevel)),
		humanize.Comma(int64(c.ParagonLevelHardcore)),
		humanize.Comma(int64(c.ParagonLevelSeason)),
		humanize.Comma(int64(c.ParagonLevelSeasonHardcore)),
	))
	sb.WriteString(fmt.Sprintf("Kills: %s monsters · %s elites · %s hardcore\n",
		humanize.Comma(c.Kills.Monsters),
		humanize.Comma(c.Kills.Elites),
		humanize.Comma(c.Kills.HardcoreMonsters),
	))
	if updated := c.LastUpdatedAt(); !updated.IsZero() {
		sb.WriteString("Last updated " + humanize.RelTime(updated, now, "ago", "from now") + "\n")
	}

	if len(c.Heroes) == 0 {
		sb.WriteString("\nNo heroes.")
		return sb.String()
	}

	maxNameLen := 0
	for _, h := range c.Heroes {
		if len(h.Name) > maxNameLen {
			maxNameLen = len(h.Name)
		}
	}

	sb.WriteString(fmt.Sprintf("\n**Heroes** (%d)\n", len(c.Heroes)))
	sb.WriteString("```ansi\n")
	for _, h := range c.Heroes {
		marker := " "
		if h.ID == c.LastHeroPlayed {
			marker = "*"
		}
		paddedName := h.Name + strings.Repeat(" ", maxNameLen-len(h.Name))
		line := fmt.Sprintf("%s %-10d %s  %-12s %2d", marker, h.ID, paddedName, ClassName(h.Class), h.Level)
		if h.ParagonLevel > 0 {
			line += fmt.Sprintf(" P%d", h.ParagonLevel)
		}
		if status := HeroStatus(h.Hardcore, h.Seasonal, h.Dead); status != "" {
			line += " " + status
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("```")

	sb.WriteString("\nHighest completed: " + HighestCompleted(c.Progression))
	if h, ok := c.Hero(c.LastHeroPlayed); ok {
		sb.WriteString("\nLast played: **" + h.Name + "**")
		if played := h.LastUpdatedAt(); !played.IsZero() {
			sb.WriteString(", " + humanize.RelTime(played, now, "ago", "from now"))
		}
	}
	if len(c.FallenHeroes) > 0 {
		sb.WriteString(fmt.Sprintf("\nFallen heroes: %d", len(c.FallenHeroes)))
		if f, ok := lastFallen(c.FallenHeroes); ok {
			sb.WriteString(fmt.Sprintf(" · most recent **%s** (level %d), %s",
				f.Name, f.Level, humanize.RelTime(f.Death.At(), now, "ago", "from now")))
		}
	}
	return sb.String()
}

// lastFallen returns the fallen hero with the latest known death time.
func lastFallen(fallen []models.FallenHero) (models.FallenHero, bool) {
	var (
		last  models.FallenHero
		found bool
	)
	for _, f := range fallen {
		at := f.Death.At()
		if at.IsZero() {
			continue
		}
		if !found || at.After(last.Death.At()) {
			last, found = f, true
		}
	}
	return last, found
}

func formatHero(tag models.BattleTag, h *models.Hero) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**%s** (%s) · %s level %d", h.Name, tag.Display(), ClassName(h.Class), h.Level))
	if h.ParagonLevel > 0 {
		sb.WriteString(fmt.Sprintf(", paragon %s", humanize.Comma(int64(h.ParagonLevel))))
	}
	var tags []string
	if h.Seasonal {
		tags = append(tags, "seasonal")
	}
	if h.Hardcore {
		tags = append(tags, "hardcore")
	}
	if h.Dead {
		tags = append(tags, "dead")
	}
	if len(tags) > 0 {
		sb.WriteString(" [" + strings.Join(tags, ", ") + "]")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Life %s · Damage %s · Armor %s\n",
		humanize.Comma(round(h.Stats.Life)),
		humanize.Comma(round(h.Stats.Damage)),
		humanize.Comma(round(h.Stats.Armor)),
	))
	if h.Stats.CritChance > 0 || h.Stats.CritDamage > 0 {
		sb.WriteString(fmt.Sprintf("Crit %.1f%% / %.0f%%\n", h.Stats.CritChance*100, h.Stats.CritDamage*100))
	}
	sb.WriteString(fmt.Sprintf("Elite kills %s · Items equipped %d/13\n",
		humanize.Comma(h.Kills.Elites),
		h.Items.Equipped(),
	))

	if len(h.Skills.Active) > 0 {
		skills := make([]string, 0, len(h.Skills.Active))
		for _, s := range h.Skills.Active {
			name := s.Skill.Name
			if s.Rune != nil && s.Rune.Name != "" {
				name += " (" + s.Rune.Name + ")"
			}
			skills = append(skills, name)
		}
		sb.WriteString("Skills: " + strings.Join(skills, ", ") + "\n")
	}
	if len(h.Skills.Passive) > 0 {
		passives := make([]string, 0, len(h.Skills.Passive))
		for _, s := range h.Skills.Passive {
			passives = append(passives, s.Skill.Name)
		}
		sb.WriteString("Passives: " + strings.Join(passives, ", ") + "\n")
	}

	progression := h.Progress.Progression()
	sb.WriteString("Highest completed: " + HighestCompleted(progression) + "\n")
	sb.WriteString(ProgressionBlock("", progression))
	return sb.String()
}

func formatTracked(tracked []trackedLine, now time.Time) string {
	if len(tracked) == 0 {
		return "No battle tags are tracked."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Tracked battle tags** (%d)\n", len(tracked)))
	for _, t := range tracked {
		refreshed := "never refreshed"
		if !t.RefreshedAt.IsZero() {
			refreshed = "refreshed " + humanize.RelTime(t.RefreshedAt, now, "ago", "from now")
		}
		sb.WriteString(fmt.Sprintf("• %s · %d heroes · %s\n", t.BattleTag.Display(), t.Heroes, refreshed))
	}
	return strings.TrimRight(sb.String(), "\n")
}

type trackedLine struct {
	BattleTag   models.BattleTag
	Heroes      int
	RefreshedAt time.Time
}

func formatEvent(e tracker.Event) string {
	tag := e.BattleTag.Display()
	switch e.Kind {
	case tracker.EventNewHero:
		return fmt.Sprintf("**%s** created **%s**, a %s.", tag, e.Hero.Name, ClassName(e.Hero.Class))
	case tracker.EventLevelUp:
		return fmt.Sprintf("**%s** (%s) reached level %d.", e.Hero.Name, tag, e.Hero.Level)
	case tracker.EventParagonUp:
		return fmt.Sprintf("**%s** (%s) reached paragon %s.", e.Hero.Name, tag, humanize.Comma(int64(e.Hero.ParagonLevel)))
	case tracker.EventHeroDied:
		return fmt.Sprintf("**%s** (%s) has fallen at level %d.", e.Hero.Name, tag, e.Hero.Level)
	case tracker.EventHeroRemoved:
		return fmt.Sprintf("**%s** (%s) is no longer on the career.", e.Hero.Name, tag)
	}
	return fmt.Sprintf("**%s** (%s): %s", e.Hero.Name, tag, e.Kind)
}

// chunkMessage splits msg on line boundaries into pieces Discord accepts.
func chunkMessage(msg string) []string {
	if len(msg) <= maxMessageLen {
		return []string{msg}
	}

	var chunks []string
	var sb strings.Builder
	for _, line := range strings.Split(msg, "\n") {
		for len(line) > maxMessageLen {
			if sb.Len() > 0 {
				chunks = append(chunks, sb.String())
				sb.Reset()
			}
			chunks = append(chunks, line[:maxMessageLen])
			line = line[maxMessageLen:]
		}
		if sb.Len() > 0 && sb.Len()+len(line)+1 > maxMessageLen {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

func round(f float64) int64 {
	return int64(math.Round(f))
}

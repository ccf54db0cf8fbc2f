package usecase

import (
	"fmt"
	"strings"

	"github.com/scorethread/scorethread/internal/domain/game"
)

// FormatHeader composes the kickoff announcement, e.g.
// "Virginia Tech (4-3, 1-3) L1 @ Clemson (8-2, 4-2) W3 has kicked off on ESPN!".
// Streaks are keyed by team id; a missing entry renders as an empty token.
func FormatHeader(g game.Game, streakByTeamID map[string]string) string {
	away := fmt.Sprintf("%s (%d-%d, %d-%d) %s",
		g.AwayTeam, g.AwayWins, g.AwayLosses, g.AwayConfWins, g.AwayConfLosses, streakByTeamID[g.AwayTeamID])
	home := fmt.Sprintf("%s (%d-%d, %d-%d) %s",
		g.HomeTeam, g.HomeWins, g.HomeLosses, g.HomeConfWins, g.HomeConfLosses, streakByTeamID[g.HomeTeamID])
	return fmt.Sprintf("%s @ %s has kicked off on %s!", away, home, g.Networks)
}

// FormatScoringUpdate composes the threaded scoring reply. The drive line is
// included only when the event carries a drive description, which the
// ingestor attaches to the first scoring play of each drive.
func FormatScoringUpdate(g game.Game, event ScoringEvent) string {
	var buf strings.Builder
	buf.WriteString(g.TeamName(event.ScoringTeamID))
	buf.WriteString(" scores! ")
	buf.WriteString(strings.TrimSpace(event.PlayText))
	if event.DriveDescription != nil {
		buf.WriteString(" after a drive of ")
		buf.WriteString(*event.DriveDescription)
		buf.WriteString(" minutes.\n")
	} else {
		buf.WriteString(".\n")
	}
	fmt.Fprintf(&buf, "%s %d - %s %d", g.AwayTeam, event.AwayScore, g.HomeTeam, event.HomeScore)
	return buf.String()
}

// FormatDailySummary composes the once-a-day root post.
func FormatDailySummary(gameCount int) string {
	return fmt.Sprintf("There are %d college football games today!", gameCount)
}

// UpdateFilter decides whether a composed update is published. The default
// is permissive; deployments that only want kick-adjacent updates configure
// a keyword filter.
type UpdateFilter func(text string) bool

func AllowAllUpdates(string) bool { return true }

// KeywordUpdateFilter publishes only updates whose text contains one of the
// markers, compared case-insensitively. No markers means allow everything.
func KeywordUpdateFilter(markers []string) UpdateFilter {
	cleaned := make([]string, 0, len(markers))
	for _, marker := range markers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" {
			cleaned = append(cleaned, marker)
		}
	}
	if len(cleaned) == 0 {
		return AllowAllUpdates
	}

	return func(text string) bool {
		lowered := strings.ToLower(text)
		for _, marker := range cleaned {
			if strings.Contains(lowered, marker) {
				return true
			}
		}
		return false
	}
}

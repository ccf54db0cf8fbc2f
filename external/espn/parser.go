package espn

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/usecase"
)

// ESPN timestamps on scoreboard events carry minutes but no seconds.
const eventDateFormat = "2006-01-02T15:04Z"

type scoreboardDoc struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	Competitions []competitionDoc `json:"competitions"`
}

type competitionDoc struct {
	Broadcast   string          `json:"broadcast"`
	Competitors []competitorDoc `json:"competitors"`
}

type competitorDoc struct {
	ID       string      `json:"id"`
	HomeAway string      `json:"homeAway"`
	Team     teamNameDoc `json:"team"`
	Records  []recordDoc `json:"records"`
}

type teamNameDoc struct {
	ShortDisplayName string `json:"shortDisplayName"`
}

type recordDoc struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

type summaryDoc struct {
	Header headerDoc  `json:"header"`
	Drives *drivesDoc `json:"drives"`
}

type headerDoc struct {
	ID           string                 `json:"id"`
	Competitions []headerCompetitionDoc `json:"competitions"`
}

type headerCompetitionDoc struct {
	Status statusDoc `json:"status"`
}

type statusDoc struct {
	Type statusTypeDoc `json:"type"`
}

type statusTypeDoc struct {
	Completed bool `json:"completed"`
}

type drivesDoc struct {
	Previous []driveDoc `json:"previous"`
}

type driveDoc struct {
	Description string    `json:"description"`
	IsScore     bool      `json:"isScore"`
	Plays       []playDoc `json:"plays"`
}

type playDoc struct {
	Text        string     `json:"text"`
	ScoringPlay bool       `json:"scoringPlay"`
	HomeScore   int        `json:"homeScore"`
	AwayScore   int        `json:"awayScore"`
	End         playEndDoc `json:"end"`
}

type playEndDoc struct {
	Team playTeamDoc `json:"team"`
}

type playTeamDoc struct {
	ID string `json:"id"`
}

type teamDoc struct {
	Team teamDetailDoc `json:"team"`
}

type teamDetailDoc struct {
	Record recordItemsDoc `json:"record"`
}

type recordItemsDoc struct {
	Items []recordItemDoc `json:"items"`
}

type recordItemDoc struct {
	Stats []statDoc `json:"stats"`
}

type statDoc struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// parseScoreboardGames maps scoreboard events to fresh game rows. Events
// with an unparseable start time or no id are dropped; scores start at zero
// and the trackable flag defaults on.
func parseScoreboardGames(doc scoreboardDoc) []game.Game {
	out := make([]game.Game, 0, len(doc.Events))
	for _, event := range doc.Events {
		if strings.TrimSpace(event.ID) == "" || len(event.Competitions) == 0 {
			continue
		}
		startTS, err := time.Parse(eventDateFormat, event.Date)
		if err != nil {
			continue
		}

		row := game.Game{
			ID:        event.ID,
			StartTS:   startTS,
			Networks:  event.Competitions[0].Broadcast,
			Trackable: true,
		}
		for _, competitor := range event.Competitions[0].Competitors {
			applyCompetitor(&row, competitor)
		}
		out = append(out, row)
	}

	return out
}

func applyCompetitor(row *game.Game, competitor competitorDoc) {
	total, conf := parseRecords(competitor.Records)
	switch competitor.HomeAway {
	case "home":
		row.HomeTeam = competitor.Team.ShortDisplayName
		row.HomeTeamID = competitor.ID
		row.HomeWins, row.HomeLosses = total[0], total[1]
		row.HomeConfWins, row.HomeConfLosses = conf[0], conf[1]
	case "away":
		row.AwayTeam = competitor.Team.ShortDisplayName
		row.AwayTeamID = competitor.ID
		row.AwayWins, row.AwayLosses = total[0], total[1]
		row.AwayConfWins, row.AwayConfLosses = conf[0], conf[1]
	}
}

// parseRecords splits the "W-L" summaries for the overall ("total") and
// conference ("vsconf") records. Malformed summaries leave zeros.
func parseRecords(records []recordDoc) (total, conf [2]int) {
	for _, record := range records {
		wins, losses, ok := splitRecordSummary(record.Summary)
		if !ok {
			continue
		}
		switch record.Type {
		case "total":
			total = [2]int{wins, losses}
		case "vsconf":
			conf = [2]int{wins, losses}
		}
	}
	return total, conf
}

func splitRecordSummary(summary string) (wins, losses int, ok bool) {
	left, right, found := strings.Cut(strings.TrimSpace(summary), "-")
	if !found {
		return 0, 0, false
	}
	wins, err := strconv.Atoi(left)
	if err != nil {
		return 0, 0, false
	}
	losses, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, false
	}
	return wins, losses, true
}

// extractScoringEvents returns the game's scoring plays ordered by combined
// score. A summary without play-by-play (game not started, or the feed not
// yet published) yields an empty slice.
//
// ESPN does emit multiple flagged scoring plays inside one drive; each is a
// distinct event, but only the first carries the drive description so a
// single drive is narrated once.
func extractScoringEvents(doc summaryDoc) []usecase.ScoringEvent {
	if doc.Drives == nil || doc.Drives.Previous == nil {
		return []usecase.ScoringEvent{}
	}

	isComplete := false
	if len(doc.Header.Competitions) > 0 {
		isComplete = doc.Header.Competitions[0].Status.Type.Completed
	}

	out := make([]usecase.ScoringEvent, 0, len(doc.Drives.Previous))
	for _, drive := range doc.Drives.Previous {
		if !drive.IsScore {
			continue
		}
		scoringIndex := 0
		for _, play := range drive.Plays {
			if !play.ScoringPlay {
				continue
			}
			var driveDescription *string
			if scoringIndex == 0 {
				description := drive.Description
				driveDescription = &description
			}
			out = append(out, usecase.ScoringEvent{
				GameID:           doc.Header.ID,
				PlayText:         play.Text,
				HomeScore:        play.HomeScore,
				AwayScore:        play.AwayScore,
				TotalScore:       play.HomeScore + play.AwayScore,
				DriveDescription: driveDescription,
				ScoringTeamID:    play.End.Team.ID,
				IsComplete:       isComplete,
			})
			scoringIndex++
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore < out[j].TotalScore })
	return out
}

// parseTeamStreak formats the signed streak stat as W{n}/L{n}. The upstream
// value arrives as a float ("4.0"); the two-character decimal suffix is
// trimmed after prefixing, matching the feed's established rendering.
// A missing streak stat yields an empty string.
func parseTeamStreak(doc teamDoc) string {
	if len(doc.Team.Record.Items) == 0 {
		return ""
	}

	for _, stat := range doc.Team.Record.Items[0].Stats {
		if stat.Name != "streak" {
			continue
		}

		value := stat.Value
		prefix := "W"
		if value < 0 {
			prefix = "L"
			value = -value
		}
		text := prefix + strconv.FormatFloat(value, 'f', 1, 64)
		return text[:len(text)-2]
	}

	return ""
}

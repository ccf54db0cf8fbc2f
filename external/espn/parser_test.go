package espn

import (
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
)

func summaryFixture(completed bool, drives *drivesDoc) summaryDoc {
	return summaryDoc{
		Header: headerDoc{
			ID: "401520163",
			Competitions: []headerCompetitionDoc{
				{Status: statusDoc{Type: statusTypeDoc{Completed: completed}}},
			},
		},
		Drives: drives,
	}
}

func scoringPlay(text string, home, away int, teamID string) playDoc {
	return playDoc{
		Text:        text,
		ScoringPlay: true,
		HomeScore:   home,
		AwayScore:   away,
		End:         playEndDoc{Team: playTeamDoc{ID: teamID}},
	}
}

func TestExtractScoringEvents_NoDrives(t *testing.T) {
	t.Parallel()

	events := extractScoringEvents(summaryFixture(false, nil))
	if len(events) != 0 {
		t.Fatalf("expected no events for a game without drives, got=%d", len(events))
	}

	events = extractScoringEvents(summaryFixture(false, &drivesDoc{}))
	if len(events) != 0 {
		t.Fatalf("expected no events for a game without previous drives, got=%d", len(events))
	}
}

func TestExtractScoringEvents_SingleScoringDrive(t *testing.T) {
	t.Parallel()

	doc := summaryFixture(false, &drivesDoc{Previous: []driveDoc{
		{
			Description: "8 plays, 75 yards, 3:32",
			IsScore:     true,
			Plays: []playDoc{
				{Text: "rush for 3 yds"},
				scoringPlay("25 yd pass TD", 7, 0, "228"),
			},
		},
	}})

	events := extractScoringEvents(doc)
	if len(events) != 1 {
		t.Fatalf("expected one event, got=%d", len(events))
	}
	event := events[0]
	if event.GameID != "401520163" {
		t.Fatalf("unexpected game id: %s", event.GameID)
	}
	if event.TotalScore != 7 {
		t.Fatalf("expected total_score=7, got=%d", event.TotalScore)
	}
	if event.DriveDescription == nil || *event.DriveDescription != "8 plays, 75 yards, 3:32" {
		t.Fatalf("expected drive description on first scoring play, got=%v", event.DriveDescription)
	}
	if event.ScoringTeamID != "228" {
		t.Fatalf("unexpected scoring team: %s", event.ScoringTeamID)
	}
	if event.IsComplete {
		t.Fatal("event should not be flagged complete")
	}
}

func TestExtractScoringEvents_TwoScoringPlaysOneDrive(t *testing.T) {
	t.Parallel()

	doc := summaryFixture(false, &drivesDoc{Previous: []driveDoc{
		{
			Description: "3 plays, 12 yards, 0:48",
			IsScore:     true,
			Plays: []playDoc{
				scoringPlay("fumble returned for TD", 0, 6, "259"),
				scoringPlay("two-point conversion good", 0, 8, "259"),
			},
		},
	}})

	events := extractScoringEvents(doc)
	if len(events) != 2 {
		t.Fatalf("expected two events, got=%d", len(events))
	}
	if events[0].DriveDescription == nil {
		t.Fatal("first scoring play must carry the drive description")
	}
	if events[1].DriveDescription != nil {
		t.Fatal("second scoring play in one drive must not repeat the drive description")
	}
}

func TestExtractScoringEvents_OrderedByTotalScore(t *testing.T) {
	t.Parallel()

	doc := summaryFixture(true, &drivesDoc{Previous: []driveDoc{
		{IsScore: true, Plays: []playDoc{scoringPlay("FG", 17, 7, "228")}},
		{IsScore: true, Plays: []playDoc{scoringPlay("TD", 7, 0, "228")}},
		{IsScore: false, Plays: []playDoc{{Text: "punt"}}},
		{IsScore: true, Plays: []playDoc{scoringPlay("TD", 7, 7, "259")}},
	}})

	events := extractScoringEvents(doc)
	if len(events) != 3 {
		t.Fatalf("expected three events, got=%d", len(events))
	}
	previous := -1
	for _, event := range events {
		if event.TotalScore < previous {
			t.Fatalf("events are not ordered by total score: %+v", events)
		}
		previous = event.TotalScore
		if !event.IsComplete {
			t.Fatal("every event in a completed game's batch must be flagged complete")
		}
	}
	if events[0].TotalScore != 7 || events[2].TotalScore != 24 {
		t.Fatalf("unexpected ordering: %+v", events)
	}
}

func TestExtractScoringEvents_SkipsNonScoringDrives(t *testing.T) {
	t.Parallel()

	doc := summaryFixture(false, &drivesDoc{Previous: []driveDoc{
		{IsScore: false, Plays: []playDoc{scoringPlay("called back", 0, 0, "228")}},
	}})

	if events := extractScoringEvents(doc); len(events) != 0 {
		t.Fatalf("expected no events from non-scoring drives, got=%d", len(events))
	}
}

func TestParseScoreboardGames(t *testing.T) {
	t.Parallel()

	raw := `{
		"events": [
			{
				"id": "401520163",
				"date": "2023-11-25T17:00Z",
				"competitions": [
					{
						"broadcast": "ESPN",
						"competitors": [
							{
								"id": "228",
								"homeAway": "home",
								"team": {"shortDisplayName": "Clemson"},
								"records": [
									{"type": "total", "summary": "8-2"},
									{"type": "vsconf", "summary": "4-2"}
								]
							},
							{
								"id": "259",
								"homeAway": "away",
								"team": {"shortDisplayName": "Virginia Tech"},
								"records": [
									{"type": "total", "summary": "4-3"},
									{"type": "vsconf", "summary": "1-3"}
								]
							}
						]
					}
				]
			}
		]
	}`

	var doc scoreboardDoc
	if err := sonic.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	games := parseScoreboardGames(doc)
	if len(games) != 1 {
		t.Fatalf("expected one game, got=%d", len(games))
	}

	row := games[0]
	if row.ID != "401520163" {
		t.Fatalf("unexpected id: %s", row.ID)
	}
	want := time.Date(2023, 11, 25, 17, 0, 0, 0, time.UTC)
	if !row.StartTS.Equal(want) {
		t.Fatalf("unexpected start: %s", row.StartTS)
	}
	if row.HomeTeam != "Clemson" || row.AwayTeam != "Virginia Tech" {
		t.Fatalf("unexpected teams: %s / %s", row.HomeTeam, row.AwayTeam)
	}
	if row.HomeWins != 8 || row.HomeLosses != 2 || row.HomeConfWins != 4 || row.HomeConfLosses != 2 {
		t.Fatalf("unexpected home record: %+v", row)
	}
	if row.AwayWins != 4 || row.AwayLosses != 3 || row.AwayConfWins != 1 || row.AwayConfLosses != 3 {
		t.Fatalf("unexpected away record: %+v", row)
	}
	if row.HomeScore != 0 || row.AwayScore != 0 {
		t.Fatalf("scores must start at zero: %+v", row)
	}
	if !row.Trackable {
		t.Fatal("games must default to trackable")
	}
	if row.Networks != "ESPN" {
		t.Fatalf("unexpected network: %s", row.Networks)
	}
}

func TestParseScoreboardGames_SkipsBadDates(t *testing.T) {
	t.Parallel()

	doc := scoreboardDoc{Events: []scoreboardEvent{
		{ID: "1", Date: "not-a-date", Competitions: []competitionDoc{{}}},
		{ID: "", Date: "2023-11-25T17:00Z", Competitions: []competitionDoc{{}}},
	}}

	if games := parseScoreboardGames(doc); len(games) != 0 {
		t.Fatalf("expected malformed events to be dropped, got=%d", len(games))
	}
}

func TestParseTeamStreak(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "winning", value: 3, want: "W3"},
		{name: "losing", value: -1, want: "L1"},
		{name: "double digit", value: 10, want: "W10"},
		{name: "zero counts as winning", value: 0, want: "W0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := teamDoc{Team: teamDetailDoc{Record: recordItemsDoc{Items: []recordItemDoc{
				{Stats: []statDoc{{Name: "wins", Value: 8}, {Name: "streak", Value: tc.value}}},
			}}}}
			if got := parseTeamStreak(doc); got != tc.want {
				t.Fatalf("unexpected streak: got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestParseTeamStreak_MissingStat(t *testing.T) {
	t.Parallel()

	doc := teamDoc{Team: teamDetailDoc{Record: recordItemsDoc{Items: []recordItemDoc{
		{Stats: []statDoc{{Name: "wins", Value: 8}}},
	}}}}
	if got := parseTeamStreak(doc); got != "" {
		t.Fatalf("expected empty streak for missing stat, got=%q", got)
	}

	if got := parseTeamStreak(teamDoc{}); got != "" {
		t.Fatalf("expected empty streak for empty record, got=%q", got)
	}
}

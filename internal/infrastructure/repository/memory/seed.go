package memory

import "github.com/noodev8/lmslocal/internal/domain/team"

const TeamListIDPremierLeague = "eng-premier-league-2025"

func SeedTeamLists() []team.TeamList {
	return []team.TeamList{
		{ID: TeamListIDPremierLeague, Name: "Premier League 2025/26"},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "eng-ars", TeamListID: TeamListIDPremierLeague, Name: "Arsenal", Short: "ARS", Active: true},
		{ID: "eng-avl", TeamListID: TeamListIDPremierLeague, Name: "Aston Villa", Short: "AVL", Active: true},
		{ID: "eng-che", TeamListID: TeamListIDPremierLeague, Name: "Chelsea", Short: "CHE", Active: true},
		{ID: "eng-eve", TeamListID: TeamListIDPremierLeague, Name: "Everton", Short: "EVE", Active: true},
		{ID: "eng-liv", TeamListID: TeamListIDPremierLeague, Name: "Liverpool", Short: "LIV", Active: true},
		{ID: "eng-mci", TeamListID: TeamListIDPremierLeague, Name: "Manchester City", Short: "MCI", Active: true},
		{ID: "eng-mun", TeamListID: TeamListIDPremierLeague, Name: "Manchester United", Short: "MUN", Active: true},
		{ID: "eng-new", TeamListID: TeamListIDPremierLeague, Name: "Newcastle United", Short: "NEW", Active: true},
		{ID: "eng-tot", TeamListID: TeamListIDPremierLeague, Name: "Tottenham Hotspur", Short: "TOT", Active: true},
		{ID: "eng-whu", TeamListID: TeamListIDPremierLeague, Name: "West Ham United", Short: "WHU", Active: true},
	}
}

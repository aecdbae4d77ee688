package team

// TeamList is a named catalog of teams a competition draws from, typically a
// league season (e.g. "Premier League 2025/26").
type TeamList struct {
	ID   string
	Name string
}

// Team is static reference data; the engine never mutates it.
type Team struct {
	ID         string
	TeamListID string
	Name       string
	Short      string
	Active     bool
}

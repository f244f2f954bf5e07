package domain

import "time"

// Player is a scouted football player.
type Player struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Position  string    `json:"position"  db:"position"`
	TeamName  string    `json:"team_name" db:"team_name"`
	Rating    float64   `json:"rating"    db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Scout is a user who files reports on players.
type Scout struct {
	ID           string    `json:"id"            db:"id"`
	Name         string    `json:"name"          db:"name"`
	Level        string    `json:"level"         db:"level"`
	TotalReports int       `json:"total_reports" db:"total_reports"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

// Report is a scout's assessment of a player.
type Report struct {
	ID        string    `json:"id"         db:"id"`
	ScoutID   string    `json:"scout_id"   db:"scout_id"`
	PlayerID  string    `json:"player_id"  db:"player_id"`
	Rating    float64   `json:"rating"     db:"rating"`
	Notes     string    `json:"notes"      db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

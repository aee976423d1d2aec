package domain

import (
	"time"

	"github.com/google/uuid"
)

// GameProgress represents where a game sits on the schedule
type GameProgress string

const (
	GameProgressFuture   GameProgress = "Future"
	GameProgressCurrent  GameProgress = "Current"
	GameProgressFinished GameProgress = "Finished"
)

// Valid reports whether p is a known game progress value
func (p GameProgress) Valid() bool {
	switch p {
	case GameProgressFuture, GameProgressCurrent, GameProgressFinished:
		return true
	}
	return false
}

// Game groups bets around an event (e.g. one stream or one match)
type Game struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Progress GameProgress `json:"progress"`
	Order    *int         `json:"order,omitempty"`
	Version  int          `json:"version"`
	Created  time.Time    `json:"created"`
	Modified time.Time    `json:"modified"`
}

// LockMoment is a named checkpoint within a game. Every bet references one;
// when the moment is reached all Voting bets referencing it become Locked
// together.
type LockMoment struct {
	ID      uuid.UUID `json:"id"`
	GameID  uuid.UUID `json:"game_id"`
	Name    string    `json:"name"`
	Order   int       `json:"order"`
	Version int       `json:"version"`
}

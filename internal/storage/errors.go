package storage

import "errors"

// ErrTeamNotFound is returned when a team ID does not exist in the backend.
var ErrTeamNotFound = errors.New("team not found")

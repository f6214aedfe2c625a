package sqlite

import "github.com/certlearn/stepwise/internal/progress"

// Ensure SQLite stores implement the storage interfaces.
var _ progress.Recorder = (*ProgressStore)(nil)

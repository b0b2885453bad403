package firestore

import "github.com/secmon-lab/procrisk/pkg/domain/interfaces"

// ErrNotFound is returned when a record does not exist
var ErrNotFound = interfaces.ErrNotFound

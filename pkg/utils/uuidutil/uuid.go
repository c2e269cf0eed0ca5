package uuidutil

import (
	"encoding/hex"
	"github.com/google/uuid"
)

// UUID returns a dash-free hex id. Instrument status messages join the
// id and status with "-", so the id itself must not contain one.
func UUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

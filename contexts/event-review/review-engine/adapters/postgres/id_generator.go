package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues v4 UUIDs for new rows.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

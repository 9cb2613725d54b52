package services

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stockroom/api/internal/repositories"
)

// IDGenerator mints identifiers for newly created documents.
type IDGenerator func() string

func defaultIDGenerator(gen IDGenerator) IDGenerator {
	if gen != nil {
		return gen
	}
	return func() string {
		return ulid.Make().String()
	}
}

func defaultClock(clock func() time.Time) func() time.Time {
	if clock != nil {
		return clock
	}
	return time.Now
}

func defaultLog(log LogFunc) LogFunc {
	if log != nil {
		return log
	}
	return func(context.Context, string, map[string]any) {}
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

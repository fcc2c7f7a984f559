package store

import (
	"time"

	dErrors "synapse/pkg/domain-errors"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return dErrors.New(dErrors.CodeValidation, "revocation ttl must be positive")
	}
	return nil
}

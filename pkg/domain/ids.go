package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dErrors "synapse/pkg/domain-errors"
)

// PlanID is the caller-supplied 128-bit identifier of a plan.
// Invariant: a parsed PlanID is never the nil UUID.
type PlanID uuid.UUID

// ParsePlanID validates and returns a PlanID at a trust boundary.
func ParsePlanID(s string) (PlanID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return PlanID{}, dErrors.New(dErrors.CodeBadRequest, "invalid plan id")
	}
	if parsed == uuid.Nil {
		return PlanID{}, dErrors.New(dErrors.CodeBadRequest, "plan id cannot be nil")
	}
	return PlanID(parsed), nil
}

func (id PlanID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero UUID.
func (id PlanID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id PlanID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *PlanID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("parse plan id: %w", err)
	}
	*id = PlanID(parsed)
	return nil
}

// ContentHashSize is the fingerprint width in bytes (256 bits).
const ContentHashSize = 32

// ContentHash fingerprints the off-system content a plan points at.
// It is the dedup key of the registry and travels as lowercase hex.
type ContentHash [ContentHashSize]byte

// ParseContentHash decodes a 64 character hex string.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil || len(raw) != ContentHashSize {
		return h, dErrors.New(dErrors.CodeBadRequest, "content hash must be 64 hex characters")
	}
	copy(h[:], raw)
	return h, nil
}

func (h ContentHash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether every byte of the hash is zero.
func (h ContentHash) IsZero() bool { return h == ContentHash{} }

func (h ContentHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *ContentHash) UnmarshalText(b []byte) error {
	parsed, err := ParseContentHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// AccountID names a party on the payment network: contributor, buyer,
// operator or administrator. The registry treats it as opaque.
type AccountID string

// ParseAccountID trims and validates an account identifier.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "account id is required")
	}
	if len(s) > 256 {
		return "", dErrors.New(dErrors.CodeBadRequest, "account id must be 256 characters or less")
	}
	return AccountID(s), nil
}

func (a AccountID) String() string { return string(a) }

func (a AccountID) IsNil() bool { return a == "" }

// AssetRef is an opaque handle to the asset moved by the transfer service.
type AssetRef string

func (a AssetRef) String() string { return string(a) }

func (a AssetRef) IsNil() bool { return a == "" }

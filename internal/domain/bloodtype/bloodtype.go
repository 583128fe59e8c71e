package bloodtype

import (
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
)

// Type is an ABO/Rh blood type.
type Type string

const (
	APositive  Type = "A+"
	ANegative  Type = "A-"
	BPositive  Type = "B+"
	BNegative  Type = "B-"
	ABPositive Type = "AB+"
	ABNegative Type = "AB-"
	OPositive  Type = "O+"
	ONegative  Type = "O-"
)

// All lists every known blood type.
var All = []Type{
	APositive, ANegative,
	BPositive, BNegative,
	ABPositive, ABNegative,
	OPositive, ONegative,
}

// Parse validates a raw blood type string.
func Parse(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", errors.NewValidationError("INVALID_BLOOD_TYPE", "Unknown blood type").
			WithDetails(map[string]interface{}{"blood_type": s})
	}
	return t, nil
}

// Valid reports whether t is a known blood type.
func (t Type) Valid() bool {
	switch t {
	case APositive, ANegative, BPositive, BNegative,
		ABPositive, ABNegative, OPositive, ONegative:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// IsUniversalDonor reports whether t can donate to any recipient.
func (t Type) IsUniversalDonor() bool {
	return t == ONegative
}

// IsUniversalRecipient reports whether t can receive from any donor.
func (t Type) IsUniversalRecipient() bool {
	return t == ABPositive
}

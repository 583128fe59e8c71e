package bloodtype

import (
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
)

// compatibleDonors maps a recipient type to the ordered set of donor types
// that can supply it. Exact match first, then O- (universal donor), then the
// remaining compatible types.
var compatibleDonors = map[Type][]Type{
	APositive:  {APositive, ONegative, ANegative, OPositive},
	ANegative:  {ANegative, ONegative},
	BPositive:  {BPositive, ONegative, BNegative, OPositive},
	BNegative:  {BNegative, ONegative},
	ABPositive: {ABPositive, ONegative, APositive, ANegative, BPositive, BNegative, ABNegative, OPositive},
	ABNegative: {ABNegative, ONegative, ANegative, BNegative},
	OPositive:  {OPositive, ONegative},
	ONegative:  {ONegative},
}

// CompatibleDonors returns the donor types that can supply a recipient of
// the given type. Unknown recipient types are a contract violation.
func CompatibleDonors(recipient Type) ([]Type, error) {
	donors, ok := compatibleDonors[recipient]
	if !ok {
		return nil, invalidTypeErr(recipient)
	}
	out := make([]Type, len(donors))
	copy(out, donors)
	return out, nil
}

// CompatibleRecipients returns the recipient types a donor of the given
// type can serve. This is the inverse of CompatibleDonors.
func CompatibleRecipients(donor Type) ([]Type, error) {
	if !donor.Valid() {
		return nil, invalidTypeErr(donor)
	}
	var recipients []Type
	for _, recipient := range All {
		for _, d := range compatibleDonors[recipient] {
			if d == donor {
				recipients = append(recipients, recipient)
				break
			}
		}
	}
	return recipients, nil
}

// CanDonate reports whether blood of type donor may be given to a recipient
// of type recipient.
func CanDonate(donor, recipient Type) (bool, error) {
	if !donor.Valid() {
		return false, invalidTypeErr(donor)
	}
	donors, err := CompatibleDonors(recipient)
	if err != nil {
		return false, err
	}
	for _, d := range donors {
		if d == donor {
			return true, nil
		}
	}
	return false, nil
}

func invalidTypeErr(t Type) error {
	return errors.NewValidationError("INVALID_BLOOD_TYPE", "Unknown blood type").
		WithDetails(map[string]interface{}{"blood_type": string(t)})
}

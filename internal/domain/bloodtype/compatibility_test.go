package bloodtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
)

func TestCompatibleDonors(t *testing.T) {
	tests := []struct {
		recipient Type
		donors    []Type
	}{
		{OPositive, []Type{OPositive, ONegative}},
		{ONegative, []Type{ONegative}},
		{ANegative, []Type{ANegative, ONegative}},
		{ABPositive, []Type{ABPositive, ONegative, APositive, ANegative, BPositive, BNegative, ABNegative, OPositive}},
	}

	for _, tt := range tests {
		t.Run(string(tt.recipient), func(t *testing.T) {
			donors, err := CompatibleDonors(tt.recipient)
			require.NoError(t, err)
			assert.Equal(t, tt.donors, donors)
		})
	}
}

func TestCompatibleDonors_Unknown(t *testing.T) {
	_, err := CompatibleDonors("C+")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestCompatibility_Symmetric(t *testing.T) {
	// If X can donate to Y, then Y's compatible-donor set must contain X,
	// and vice versa across the whole table.
	for _, recipient := range All {
		donors, err := CompatibleDonors(recipient)
		require.NoError(t, err)

		for _, donor := range donors {
			recipients, err := CompatibleRecipients(donor)
			require.NoError(t, err)
			assert.Contains(t, recipients, recipient,
				"%s donates to %s but inverse table disagrees", donor, recipient)
		}
	}
}

func TestUniversalDonorAndRecipient(t *testing.T) {
	recipients, err := CompatibleRecipients(ONegative)
	require.NoError(t, err)
	assert.Len(t, recipients, len(All), "O- must be able to serve every recipient")

	donors, err := CompatibleDonors(ABPositive)
	require.NoError(t, err)
	assert.Len(t, donors, len(All), "AB+ must be able to receive from every donor")
}

func TestCanDonate(t *testing.T) {
	ok, err := CanDonate(ONegative, APositive)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanDonate(APositive, ONegative)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CanDonate("X-", APositive)
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	bt, err := Parse("AB-")
	require.NoError(t, err)
	assert.Equal(t, ABNegative, bt)

	_, err = Parse("ab-")
	require.Error(t, err)
}

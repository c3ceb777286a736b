package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {

	type subTest struct {
		name        string
		code        string
		expected    Code
		expectedErr bool
	}

	subTests := []subTest{
		{
			name: "Agile electricity",
			code: "E-1R-AGILE-18-02-21-C",
			expected: Code{
				Raw:         "E-1R-AGILE-18-02-21-C",
				Fuel:        Electricity,
				RateCount:   1,
				ProductCode: "AGILE-18-02-21",
				Region:      "C",
			},
		},
		{
			name: "Economy 7 electricity",
			code: "E-2R-VAR-22-11-01-A",
			expected: Code{
				Raw:         "E-2R-VAR-22-11-01-A",
				Fuel:        Electricity,
				RateCount:   2,
				ProductCode: "VAR-22-11-01",
				Region:      "A",
			},
		},
		{
			name: "Gas",
			code: "G-1R-SUPER-GREEN-24M-21-07-30-H",
			expected: Code{
				Raw:         "G-1R-SUPER-GREEN-24M-21-07-30-H",
				Fuel:        Gas,
				RateCount:   1,
				ProductCode: "SUPER-GREEN-24M-21-07-30",
				Region:      "H",
			},
		},
		{name: "Too short", code: "E-1R-C", expectedErr: true},
		{name: "Unknown fuel", code: "X-1R-AGILE-18-02-21-C", expectedErr: true},
		{name: "Unknown rate segment", code: "E-3R-AGILE-18-02-21-C", expectedErr: true},
		{name: "Invalid region", code: "E-1R-AGILE-18-02-21", expectedErr: true},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			code, err := ParseCode(subTest.code)
			if subTest.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, subTest.expected, code)
		})
	}
}

func TestIsDayNight(t *testing.T) {
	code, err := ParseCode("E-2R-VAR-22-11-01-A")
	assert.NoError(t, err)
	assert.True(t, code.IsDayNight())

	code, err = ParseCode("E-1R-VAR-22-11-01-A")
	assert.NoError(t, err)
	assert.False(t, code.IsDayNight())
}

package tariff

import (
	"fmt"
	"strings"
)

// Fuel is the energy type that a tariff is for.
type Fuel string

const (
	Electricity Fuel = "electricity"
	Gas         Fuel = "gas"
)

// Code is a parsed Octopus tariff code, e.g. "E-1R-AGILE-18-02-21-C".
type Code struct {
	Raw         string
	Fuel        Fuel
	RateCount   int    // the number of registers on the meter, 2 for day/night (Economy 7) tariffs
	ProductCode string // e.g. "AGILE-18-02-21"
	Region      string // the single letter GSP group, e.g. "C"
}

// ParseCode splits a tariff code into its fuel, register count, product and region parts.
func ParseCode(code string) (Code, error) {

	parts := strings.Split(code, "-")
	if len(parts) < 4 {
		return Code{}, fmt.Errorf("tariff code '%s' has too few parts", code)
	}

	var fuel Fuel
	switch parts[0] {
	case "E":
		fuel = Electricity
	case "G":
		fuel = Gas
	default:
		return Code{}, fmt.Errorf("tariff code '%s' has unknown fuel '%s'", code, parts[0])
	}

	var rateCount int
	switch parts[1] {
	case "1R":
		rateCount = 1
	case "2R":
		rateCount = 2
	default:
		return Code{}, fmt.Errorf("tariff code '%s' has unknown rate segment '%s'", code, parts[1])
	}

	region := parts[len(parts)-1]
	if len(region) != 1 {
		return Code{}, fmt.Errorf("tariff code '%s' has invalid region '%s'", code, region)
	}

	return Code{
		Raw:         code,
		Fuel:        fuel,
		RateCount:   rateCount,
		ProductCode: strings.Join(parts[2:len(parts)-1], "-"),
		Region:      region,
	}, nil
}

// IsDayNight returns true for two-register tariffs which have separate day and night unit rates.
func (c Code) IsDayNight() bool {
	return c.RateCount == 2
}

func (c Code) String() string {
	return c.Raw
}

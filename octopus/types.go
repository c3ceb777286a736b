package octopus

import "time"

// page is the paginated envelope that wraps every Octopus list endpoint.
type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// rateResponse holds the json encoding of a unit rate or standing charge. `valid_to` is null for open ended rates.
type rateResponse struct {
	ValueExcVat float64    `json:"value_exc_vat"`
	ValueIncVat float64    `json:"value_inc_vat"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidTo     *time.Time `json:"valid_to"`
}

// consumptionResponse holds the json encoding of a single consumption interval.
type consumptionResponse struct {
	Consumption   float64   `json:"consumption"`
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
}

// Agreement is a tariff that applied to a meter point between two times. ValidTo is nil for the ongoing agreement.
type Agreement struct {
	TariffCode string     `json:"tariff_code"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
}

type Meter struct {
	SerialNumber string `json:"serial_number"`
}

type ElectricityMeterPoint struct {
	Mpan       string      `json:"mpan"`
	IsExport   bool        `json:"is_export"`
	Meters     []Meter     `json:"meters"`
	Agreements []Agreement `json:"agreements"`
}

type GasMeterPoint struct {
	Mprn       string      `json:"mprn"`
	Meters     []Meter     `json:"meters"`
	Agreements []Agreement `json:"agreements"`
}

type Property struct {
	ID                     int                     `json:"id"`
	ElectricityMeterPoints []ElectricityMeterPoint `json:"electricity_meter_points"`
	GasMeterPoints         []GasMeterPoint         `json:"gas_meter_points"`
}

// Account is the subset of the account endpoint that is needed to find the tariffs of each meter.
type Account struct {
	Number     string     `json:"number"`
	Properties []Property `json:"properties"`
}

// ActiveTariffCode returns the tariff code of the agreement that applies at `t` for the given MPAN or MPRN.
func (a *Account) ActiveTariffCode(meterPoint string, t time.Time) (string, bool) {
	for _, property := range a.Properties {
		for _, point := range property.ElectricityMeterPoints {
			if point.Mpan == meterPoint {
				return activeAgreement(point.Agreements, t)
			}
		}
		for _, point := range property.GasMeterPoints {
			if point.Mprn == meterPoint {
				return activeAgreement(point.Agreements, t)
			}
		}
	}
	return "", false
}

func activeAgreement(agreements []Agreement, t time.Time) (string, bool) {
	for _, agreement := range agreements {
		if agreement.ValidFrom.After(t) {
			continue
		}
		if agreement.ValidTo == nil || agreement.ValidTo.After(t) {
			return agreement.TariffCode, true
		}
	}
	return "", false
}

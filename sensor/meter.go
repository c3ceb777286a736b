package sensor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cepro/tariffsensors/consumption"
	"github.com/cepro/tariffsensors/rates"
	"github.com/cepro/tariffsensors/tariff"
	timeutils "github.com/cepro/tariffsensors/time_utils"
)

// meterAttributes are included in the attributes of every sensor of a meter.
type meterAttributes struct {
	fuel         tariff.Fuel
	meterPoint   string // MPAN or MPRN
	serialNumber string
	isExport     bool
	isSmartMeter bool
}

func (m meterAttributes) toMap() map[string]interface{} {
	attributes := map[string]interface{}{
		"serial_number":  m.serialNumber,
		"is_smart_meter": m.isSmartMeter,
	}
	if m.fuel == tariff.Gas {
		attributes["mprn"] = m.meterPoint
	} else {
		attributes["mpan"] = m.meterPoint
		attributes["is_export"] = m.isExport
	}
	return attributes
}

// idPrefix returns the prefix shared by the unique IDs of all the meter's sensors.
func (m meterAttributes) idPrefix() string {
	prefix := fmt.Sprintf("octopus_energy_%s_%s_%s", m.fuel, m.serialNumber, m.meterPoint)
	if m.isExport {
		prefix += "_export"
	}
	return strings.ToLower(prefix)
}

// namePrefix returns the prefix shared by the names of all the meter's sensors.
func (m meterAttributes) namePrefix() string {
	name := fmt.Sprintf("%s %s %s", strings.ToUpper(string(m.fuel[:1]))+string(m.fuel[1:]), m.serialNumber, m.meterPoint)
	if m.isExport {
		name += " Export"
	}
	return name
}

func (m meterAttributes) base(suffix, name, deviceClass, stateClass, unit, icon string) base {
	return base{
		uniqueID:    m.idPrefix() + "_" + suffix,
		name:        m.namePrefix() + " " + name,
		deviceClass: deviceClass,
		stateClass:  stateClass,
		unit:        unit,
		icon:        icon,
	}
}

// ElectricityMeter holds the data sources for an electricity meter.
type ElectricityMeter struct {
	Mpan         string
	SerialNumber string
	TariffCode   string
	IsExport     bool
	IsSmartMeter bool

	Rates          Source[[]rates.Rate]
	StandingCharge Source[float64] // pence per day

	// PreviousConsumption is nil when the smart meter data isn't available from the API
	PreviousConsumption Source[[]consumption.Consumption]
	// LocalConsumption is nil when there isn't a local meter measuring the supply in real time
	LocalConsumption ConsumptionReader
}

// NewElectricitySensors creates the sensors for the given electricity meter.
func NewElectricitySensors(meter ElectricityMeter, clock Clock) []Sensor {
	attrs := meterAttributes{
		fuel:         tariff.Electricity,
		meterPoint:   meter.Mpan,
		serialNumber: meter.SerialNumber,
		isExport:     meter.IsExport,
		isSmartMeter: meter.IsSmartMeter,
	}

	sensors := []Sensor{
		&rateSensor{
			base:       attrs.base("current_rate", "Current Rate", DeviceClassMonetary, "", UnitPoundsPerKwh, "mdi:currency-gbp"),
			kind:       currentRate,
			meter:      attrs,
			tariffCode: meter.TariffCode,
			rates:      meter.Rates,
			clock:      clock,
		},
		&rateSensor{
			base:       attrs.base("previous_rate", "Previous Rate", DeviceClassMonetary, "", UnitPoundsPerKwh, "mdi:currency-gbp"),
			kind:       previousRate,
			meter:      attrs,
			tariffCode: meter.TariffCode,
			rates:      meter.Rates,
			clock:      clock,
		},
		&rateSensor{
			base:       attrs.base("next_rate", "Next Rate", DeviceClassMonetary, "", UnitPoundsPerKwh, "mdi:currency-gbp"),
			kind:       nextRate,
			meter:      attrs,
			tariffCode: meter.TariffCode,
			rates:      meter.Rates,
			clock:      clock,
		},
		&standingChargeSensor{
			base:           attrs.base("current_standing_charge", "Current Standing Charge", DeviceClassMonetary, "", UnitPounds, "mdi:currency-gbp"),
			meter:          attrs,
			tariffCode:     meter.TariffCode,
			standingCharge: meter.StandingCharge,
		},
	}

	if meter.PreviousConsumption != nil {
		reader := sourceReader{source: meter.PreviousConsumption}
		sensors = append(sensors,
			&consumptionSensor{
				base:         attrs.base("previous_accumulative_consumption", "Previous Accumulative Consumption", DeviceClassEnergy, StateClassTotal, UnitKwh, "mdi:lightning-bolt"),
				meter:        attrs,
				consumptions: reader,
				period:       timeutils.PreviousDayPeriod,
				clock:        clock,
			},
			newCostSensor(
				attrs.base("previous_accumulative_cost", "Previous Accumulative Cost", DeviceClassMonetary, StateClassTotal, UnitPounds, "mdi:currency-gbp"),
				attrs, meter.TariffCode, reader, timeutils.PreviousDayPeriod, nil, meter.Rates, meter.StandingCharge, clock, true,
			),
		)
	}

	if meter.LocalConsumption != nil {
		sensors = append(sensors,
			&consumptionSensor{
				base:           attrs.base("current_accumulative_consumption", "Current Accumulative Consumption", DeviceClassEnergy, StateClassTotal, UnitKwh, "mdi:lightning-bolt"),
				meter:          attrs,
				consumptions:   meter.LocalConsumption,
				period:         timeutils.DayPeriod,
				clock:          clock,
				rates:          meter.Rates,
				standingCharge: meter.StandingCharge,
			},
			newCostSensor(
				attrs.base("current_accumulative_cost", "Current Accumulative Cost", DeviceClassMonetary, StateClassTotal, UnitPounds, "mdi:currency-gbp"),
				attrs, meter.TariffCode, meter.LocalConsumption, timeutils.DayPeriod, nil, meter.Rates, meter.StandingCharge, clock, false,
			),
		)
	}

	return sensors
}

// GasMeter holds the data sources for a gas meter. Consumption is reported by the API in m3.
type GasMeter struct {
	Mprn           string
	SerialNumber   string
	TariffCode     string
	IsSmartMeter   bool
	CalorificValue float64 // MJ/m3

	Rates               Source[[]rates.Rate]
	StandingCharge      Source[float64] // pence per day
	PreviousConsumption Source[[]consumption.Consumption]
}

// NewGasSensors creates the sensors for the given gas meter.
func NewGasSensors(meter GasMeter, clock Clock) []Sensor {
	attrs := meterAttributes{
		fuel:         tariff.Gas,
		meterPoint:   meter.Mprn,
		serialNumber: meter.SerialNumber,
		isSmartMeter: meter.IsSmartMeter,
	}

	toKwh := func(m3 float64) float64 {
		return consumption.ConvertM3ToKwh(m3, meter.CalorificValue)
	}

	sensors := []Sensor{
		&rateSensor{
			base:       attrs.base("current_rate", "Current Rate", DeviceClassMonetary, "", UnitPoundsPerKwh, "mdi:currency-gbp"),
			kind:       currentRate,
			meter:      attrs,
			tariffCode: meter.TariffCode,
			rates:      meter.Rates,
			clock:      clock,
		},
		&standingChargeSensor{
			base:           attrs.base("current_standing_charge", "Current Standing Charge", DeviceClassMonetary, "", UnitPounds, "mdi:currency-gbp"),
			meter:          attrs,
			tariffCode:     meter.TariffCode,
			standingCharge: meter.StandingCharge,
		},
	}

	if meter.PreviousConsumption != nil {
		reader := sourceReader{source: meter.PreviousConsumption}
		sensors = append(sensors,
			&consumptionSensor{
				base:         attrs.base("previous_accumulative_consumption", "Previous Accumulative Consumption", DeviceClassGas, StateClassTotal, UnitCubicMetres, "mdi:fire"),
				meter:        attrs,
				consumptions: reader,
				period:       timeutils.PreviousDayPeriod,
				clock:        clock,
			},
			&consumptionSensor{
				base:         attrs.base("previous_accumulative_consumption_kwh", "Previous Accumulative Consumption (kWh)", DeviceClassEnergy, StateClassTotal, UnitKwh, "mdi:fire"),
				meter:        attrs,
				consumptions: reader,
				period:       timeutils.PreviousDayPeriod,
				convert:      toKwh,
				clock:        clock,
			},
			newCostSensor(
				attrs.base("previous_accumulative_cost", "Previous Accumulative Cost", DeviceClassMonetary, StateClassTotal, UnitPounds, "mdi:currency-gbp"),
				attrs, meter.TariffCode, reader, timeutils.PreviousDayPeriod, toKwh, meter.Rates, meter.StandingCharge, clock, true,
			),
		)
	}

	return sensors
}

func newCostSensor(b base, attrs meterAttributes, tariffCode string, consumptions ConsumptionReader, period periodFunc, convert convertFunc, rateSource Source[[]rates.Rate], standingCharge Source[float64], clock Clock, reuseResult bool) *costSensor {
	return &costSensor{
		base:           b,
		meter:          attrs,
		tariffCode:     tariffCode,
		consumptions:   consumptions,
		period:         period,
		convert:        convert,
		rates:          rateSource,
		standingCharge: standingCharge,
		clock:          clock,
		reuseResult:    reuseResult,
		logger:         slog.Default().With("sensor", b.uniqueID),
	}
}

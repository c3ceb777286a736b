package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cepro/tariffsensors/acuvim2"
	"github.com/cepro/tariffsensors/config"
	"github.com/cepro/tariffsensors/consumption"
	"github.com/cepro/tariffsensors/coordinator"
	"github.com/cepro/tariffsensors/octopus"
	"github.com/cepro/tariffsensors/rates"
	"github.com/cepro/tariffsensors/sensor"
	"github.com/cepro/tariffsensors/telemetry"
	timeutils "github.com/cepro/tariffsensors/time_utils"
)

// localMeter is a real time meter feeding an accumulator.
type localMeter struct {
	meter       *acuvim2.Acuvim2Meter
	readings    chan telemetry.MeterReading
	accumulator *consumption.Accumulator
	isExport    bool
	period      time.Duration
}

// app holds everything that is built from the config.
type app struct {
	cfg   config.Config
	clock sensor.Clock

	rateCoordinators        []*coordinator.Coordinator[[]rates.Rate]
	floatCoordinators       []*coordinator.Coordinator[float64]
	consumptionCoordinators []*coordinator.Coordinator[[]consumption.Consumption]
	localMeters             []localMeter

	sensors []sensor.Sensor
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	return buildApp(ctx, cfg, func() time.Time {
		return time.Now().In(location)
	})
}

// buildApp creates the coordinators, local meters and sensors for every configured meter. The account is fetched
// straight away if tariff codes need to be looked up.
func buildApp(ctx context.Context, cfg config.Config, clock sensor.Clock) (*app, error) {
	a := &app{
		cfg:   cfg,
		clock: clock,
	}

	client := octopus.New(
		http.Client{Timeout: time.Duration(cfg.Octopus.TimeoutSecs) * time.Second},
		cfg.Octopus.BaseUrl,
		os.Getenv("OCTOPUS_API_KEY"),
	)

	var account *octopus.Account
	if cfg.Octopus.AccountID != "" {
		fetched, err := client.Account(ctx, cfg.Octopus.AccountID)
		if err != nil {
			return nil, err
		}
		account = &fetched
	}

	for _, meterCfg := range cfg.Electricity {
		meter, err := a.electricityMeter(client, account, meterCfg)
		if err != nil {
			return nil, err
		}
		a.sensors = append(a.sensors, sensor.NewElectricitySensors(meter, a.clock)...)
	}

	for _, meterCfg := range cfg.Gas {
		meter, err := a.gasMeter(client, account, meterCfg)
		if err != nil {
			return nil, err
		}
		a.sensors = append(a.sensors, sensor.NewGasSensors(meter, a.clock)...)
	}

	return a, nil
}

// tariffCode returns the configured tariff code, or looks it up from the account agreements.
func (a *app) tariffCode(account *octopus.Account, configured, meterPoint string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if account == nil {
		return "", fmt.Errorf("no tariff code for meter point %s", meterPoint)
	}
	code, ok := account.ActiveTariffCode(meterPoint, a.clock())
	if !ok {
		return "", fmt.Errorf("no active agreement for meter point %s", meterPoint)
	}
	return code, nil
}

func (a *app) electricityMeter(client *octopus.Client, account *octopus.Account, meterCfg config.ElectricityMeterConfig) (sensor.ElectricityMeter, error) {
	meter := sensor.ElectricityMeter{
		Mpan:         meterCfg.Mpan,
		SerialNumber: meterCfg.SerialNumber,
		IsExport:     meterCfg.IsExport,
		IsSmartMeter: meterCfg.IsSmartMeter,
	}
	name := fmt.Sprintf("electricity_%s", meterCfg.Mpan)

	if meterCfg.FixedTariff != "" {
		fixed := a.cfg.FixedTariffs[meterCfg.FixedTariff]
		meter.TariffCode = meterCfg.FixedTariff
		meter.Rates = a.addRates(name+"_rates", func(ctx context.Context) ([]rates.Rate, error) {
			return rates.FromTimedRates(rates.Window(a.clock()), fixed.TimedRates, fixed.DefaultRate), nil
		})
		meter.StandingCharge = a.addFloat(name+"_standing_charge", func(ctx context.Context) (float64, error) {
			return fixed.StandingCharge, nil
		})
	} else {
		tariffCode, err := a.tariffCode(account, meterCfg.TariffCode, meterCfg.Mpan)
		if err != nil {
			return sensor.ElectricityMeter{}, err
		}
		meter.TariffCode = tariffCode
		meter.Rates = a.addRates(name+"_rates", func(ctx context.Context) ([]rates.Rate, error) {
			window := rates.Window(a.clock())
			rateData, err := client.ElectricityRates(ctx, tariffCode, window.Start, window.End)
			if err != nil {
				return nil, err
			}
			if meterCfg.PriceCap != nil {
				rateData = rates.ApplyPriceCap(rateData, *meterCfg.PriceCap)
			}
			return rateData, nil
		})
		meter.StandingCharge = a.addFloat(name+"_standing_charge", func(ctx context.Context) (float64, error) {
			return client.ElectricityStandingCharge(ctx, tariffCode, a.clock())
		})
	}

	if meterCfg.IsSmartMeter {
		meter.PreviousConsumption = a.addConsumption(name+"_consumption", func(ctx context.Context) ([]consumption.Consumption, error) {
			yesterday := timeutils.PreviousDayPeriod(a.clock())
			return client.ElectricityConsumption(ctx, meterCfg.Mpan, meterCfg.SerialNumber, yesterday.Start, yesterday.End)
		})
	}

	if meterCfg.LocalMeter != nil {
		readings := make(chan telemetry.MeterReading, 10)
		accumulator := consumption.NewAccumulator()
		period := time.Duration(meterCfg.LocalMeter.PollIntervalSecs) * time.Second
		if period <= 0 {
			period = 10 * time.Second
		}
		a.localMeters = append(a.localMeters, localMeter{
			meter:       acuvim2.New(readings, meterCfg.LocalMeter.ID, meterCfg.LocalMeter.Host),
			readings:    readings,
			accumulator: accumulator,
			isExport:    meterCfg.IsExport,
			period:      period,
		})
		meter.LocalConsumption = accumulator
	}

	return meter, nil
}

func (a *app) gasMeter(client *octopus.Client, account *octopus.Account, meterCfg config.GasMeterConfig) (sensor.GasMeter, error) {
	tariffCode, err := a.tariffCode(account, meterCfg.TariffCode, meterCfg.Mprn)
	if err != nil {
		return sensor.GasMeter{}, err
	}
	name := fmt.Sprintf("gas_%s", meterCfg.Mprn)

	meter := sensor.GasMeter{
		Mprn:           meterCfg.Mprn,
		SerialNumber:   meterCfg.SerialNumber,
		TariffCode:     tariffCode,
		IsSmartMeter:   meterCfg.IsSmartMeter,
		CalorificValue: meterCfg.CalorificValue,
	}

	meter.Rates = a.addRates(name+"_rates", func(ctx context.Context) ([]rates.Rate, error) {
		window := rates.Window(a.clock())
		rateData, err := client.GasRates(ctx, tariffCode, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		if meterCfg.PriceCap != nil {
			rateData = rates.ApplyPriceCap(rateData, *meterCfg.PriceCap)
		}
		return rateData, nil
	})
	meter.StandingCharge = a.addFloat(name+"_standing_charge", func(ctx context.Context) (float64, error) {
		return client.GasStandingCharge(ctx, tariffCode, a.clock())
	})

	if meterCfg.IsSmartMeter {
		meter.PreviousConsumption = a.addConsumption(name+"_consumption", func(ctx context.Context) ([]consumption.Consumption, error) {
			yesterday := timeutils.PreviousDayPeriod(a.clock())
			return client.GasConsumption(ctx, meterCfg.Mprn, meterCfg.SerialNumber, yesterday.Start, yesterday.End)
		})
	}

	return meter, nil
}

func (a *app) timeout() time.Duration {
	return time.Duration(a.cfg.Octopus.TimeoutSecs) * time.Second
}

func (a *app) addRates(name string, fetch coordinator.FetchFunc[[]rates.Rate]) *coordinator.Coordinator[[]rates.Rate] {
	c := coordinator.New(name, a.timeout(), fetch)
	a.rateCoordinators = append(a.rateCoordinators, c)
	return c
}

func (a *app) addFloat(name string, fetch coordinator.FetchFunc[float64]) *coordinator.Coordinator[float64] {
	c := coordinator.New(name, a.timeout(), fetch)
	a.floatCoordinators = append(a.floatCoordinators, c)
	return c
}

func (a *app) addConsumption(name string, fetch coordinator.FetchFunc[[]consumption.Consumption]) *coordinator.Coordinator[[]consumption.Consumption] {
	c := coordinator.New(name, a.timeout(), fetch)
	a.consumptionCoordinators = append(a.consumptionCoordinators, c)
	return c
}

// runCoordinators starts polling all the data sources in the background.
func (a *app) runCoordinators(ctx context.Context) {
	ratesPeriod := time.Duration(a.cfg.Octopus.RatesPollIntervalSecs) * time.Second
	consumptionPeriod := time.Duration(a.cfg.Octopus.ConsumptionPollIntervalSecs) * time.Second

	for _, c := range a.rateCoordinators {
		go c.Run(ctx, ratesPeriod)
	}
	for _, c := range a.floatCoordinators {
		go c.Run(ctx, ratesPeriod)
	}
	for _, c := range a.consumptionCoordinators {
		go c.Run(ctx, consumptionPeriod)
	}
}

// refreshRates fetches the rates and standing charges once.
func (a *app) refreshRates(ctx context.Context) {
	for _, c := range a.rateCoordinators {
		if err := c.Refresh(ctx); err != nil {
			slog.Error("Failed to refresh rates", "error", err)
		}
	}
	for _, c := range a.floatCoordinators {
		if err := c.Refresh(ctx); err != nil {
			slog.Error("Failed to refresh standing charge", "error", err)
		}
	}
}

// runLocalMeters polls the local meters, feeding their register readings into the accumulators and, optionally, onto
// the `upload` channel.
func (a *app) runLocalMeters(ctx context.Context, upload chan<- telemetry.MeterReading) {
	for _, lm := range a.localMeters {
		go lm.meter.Run(ctx, lm.period)

		go func(lm localMeter) {
			for {
				select {
				case <-ctx.Done():
					return
				case reading := <-lm.readings:
					lm.record(ctx, reading, upload)
				}
			}
		}(lm)
	}
}

// record adds the import (or export) register of the reading to the accumulator and passes the reading on for upload.
func (lm localMeter) record(ctx context.Context, reading telemetry.MeterReading, upload chan<- telemetry.MeterReading) {
	register := reading.EnergyImportedActive
	if lm.isExport {
		register = reading.EnergyExportedActive
	}
	if register != nil {
		lm.accumulator.Add(reading.Time, *register)
	}

	if upload == nil {
		return
	}
	select {
	case upload <- reading:
	case <-ctx.Done():
	}
}

// reportRates fetches the rates once and writes the current rate information of every meter to `out`. If `date` is
// given then the rates are evaluated at the start of settlement period `sp` on that date, rather than now.
func reportRates(ctx context.Context, cfg config.Config, date string, sp int, out io.Writer) error {
	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load location: %w", err)
	}

	clock := func() time.Time {
		return time.Now().In(location)
	}
	if date != "" {
		at, err := timeutils.StartOfSettlementPeriod(date, sp, location)
		if err != nil {
			return err
		}
		clock = func() time.Time {
			return at
		}
	}

	a, err := buildApp(ctx, cfg, clock)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	a.refreshRates(ctx)
	a.writeRates(out)

	return nil
}

// writeRates writes one line per rate source. The day statistics are "unknown" when no rate lies wholly within today,
// e.g. for tariffs with a single open ended rate.
func (a *app) writeRates(out io.Writer) {
	now := a.clock()
	for _, c := range a.rateCoordinators {
		rateData, ok := c.Data()
		if !ok {
			fmt.Fprintf(out, "%s: no rates\n", c.Name())
			continue
		}
		info, ok := rates.CurrentInformation(rateData, now)
		if !ok {
			fmt.Fprintf(out, "%s: no current rate\n", c.Name())
			continue
		}
		fmt.Fprintf(out, "%s: %s GBP/kWh from %s to %s (today min %s, max %s, average %s)\n",
			c.Name(),
			formatPounds(info.CurrentRate.ValueIncVat),
			info.CurrentRate.ValidFrom.Format(time.RFC3339),
			info.CurrentRate.ValidTo.Format(time.RFC3339),
			formatPounds(info.MinRateToday),
			formatPounds(info.MaxRateToday),
			formatPounds(info.AverageRateToday),
		)
	}
}

func formatPounds(pence float64) string {
	if math.IsNaN(pence) {
		return "unknown"
	}
	return strconv.FormatFloat(rates.PenceToPounds(pence), 'f', 5, 64)
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type OctopusConfig struct {
	BaseUrl   string `yaml:"baseUrl"`
	AccountID string `yaml:"accountId"`
	// API key is specified via env var
	RatesPollIntervalSecs       int `yaml:"ratesPollIntervalSecs"`
	ConsumptionPollIntervalSecs int `yaml:"consumptionPollIntervalSecs"`
	TimeoutSecs                 int `yaml:"timeoutSecs"`
}

// Acuvim2MeterConfig describes a local meter that measures the same supply as a smart meter, so that today's consumption
// is available before the smart meter data is published.
type Acuvim2MeterConfig struct {
	Host             string    `yaml:"host"`
	ID               uuid.UUID `yaml:"id"`
	PollIntervalSecs int       `yaml:"pollIntervalSecs"`
}

type ElectricityMeterConfig struct {
	Mpan         string   `yaml:"mpan"`
	SerialNumber string   `yaml:"serialNumber"`
	TariffCode   string   `yaml:"tariffCode"` // looked up from the account agreements when empty
	IsExport     bool     `yaml:"isExport"`
	IsSmartMeter bool     `yaml:"isSmartMeter"`
	PriceCap     *float64 `yaml:"priceCap"`    // optional p/kWh cap applied to published rates
	FixedTariff  string   `yaml:"fixedTariff"` // optional name of an entry in `fixedTariffs` to use instead of the API rates

	LocalMeter *Acuvim2MeterConfig `yaml:"localMeter"`
}

type GasMeterConfig struct {
	Mprn           string   `yaml:"mprn"`
	SerialNumber   string   `yaml:"serialNumber"`
	TariffCode     string   `yaml:"tariffCode"`
	IsSmartMeter   bool     `yaml:"isSmartMeter"`
	CalorificValue float64  `yaml:"calorificValue"` // MJ/m3
	PriceCap       *float64 `yaml:"priceCap"`
}

// FixedTariffConfig describes a time-of-use tariff locally, for supplies where the rates are not published by the API.
type FixedTariffConfig struct {
	StandingCharge float64     `yaml:"standingCharge"` // pence per day
	DefaultRate    float64     `yaml:"defaultRate"`    // p/kWh outside of any `timedRates`
	TimedRates     []TimedRate `yaml:"timedRates"`
}

type RepositoryConfig struct {
	Path string `yaml:"path"`
}

type SupabaseConfig struct {
	Url string `yaml:"url"`
	// key is specified via env var
	Schema string `yaml:"schema"`
}

type DataPlatformConfig struct {
	Enabled            bool           `yaml:"enabled"`
	UploadIntervalSecs int            `yaml:"uploadIntervalSecs"`
	Supabase           SupabaseConfig `yaml:"supabase"`
}

type MqttConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Url      string `yaml:"url"`
	ClientID string `yaml:"clientId"`
	Username string `yaml:"username"`
	// password is specified via env var
	DiscoveryPrefix string `yaml:"discoveryPrefix"`
	BaseTopic       string `yaml:"baseTopic"`
}

type ApiConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

type Config struct {
	Timezone                 string                       `yaml:"timezone"`
	SensorUpdateIntervalSecs int                          `yaml:"sensorUpdateIntervalSecs"`
	Octopus                  OctopusConfig                `yaml:"octopus"`
	Electricity              []ElectricityMeterConfig     `yaml:"electricity"`
	Gas                      []GasMeterConfig             `yaml:"gas"`
	FixedTariffs             map[string]FixedTariffConfig `yaml:"fixedTariffs"`
	Repository               RepositoryConfig             `yaml:"repository"`
	DataPlatform             DataPlatformConfig           `yaml:"dataPlatform"`
	Mqtt                     MqttConfig                   `yaml:"mqtt"`
	Api                      ApiConfig                    `yaml:"api"`
}

// Read parses the YAML config file at `path`, fills in defaults and validates it.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	return Parse(content)
}

// Parse is as Read, but takes the YAML content directly.
func Parse(content []byte) (Config, error) {
	config := defaults()
	err := yaml.Unmarshal(content, &config)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	err = config.validate()
	if err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// Location returns the configured timezone, which defines where "today" starts and ends.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func defaults() Config {
	return Config{
		Timezone:                 "Europe/London",
		SensorUpdateIntervalSecs: 60,
		Octopus: OctopusConfig{
			BaseUrl:                     "https://api.octopus.energy/v1",
			RatesPollIntervalSecs:       30 * 60,
			ConsumptionPollIntervalSecs: 60 * 60,
			TimeoutSecs:                 20,
		},
		Repository: RepositoryConfig{
			Path: "tariffsensors.sqlite",
		},
		DataPlatform: DataPlatformConfig{
			UploadIntervalSecs: 60,
		},
		Mqtt: MqttConfig{
			ClientID:        "tariffsensors",
			DiscoveryPrefix: "homeassistant",
			BaseTopic:       "tariffsensors",
		},
		Api: ApiConfig{
			ListenAddr: ":8080",
		},
	}
}

func (c *Config) validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	for _, meter := range c.Electricity {
		if meter.Mpan == "" || meter.SerialNumber == "" {
			return fmt.Errorf("electricity meter requires an mpan and serial number")
		}
		if meter.TariffCode == "" && meter.FixedTariff == "" && c.Octopus.AccountID == "" {
			return fmt.Errorf("electricity meter %s requires a tariff code, a fixed tariff or an account id", meter.Mpan)
		}
		if meter.LocalMeter != nil && meter.LocalMeter.Host == "" {
			return fmt.Errorf("electricity meter %s has a local meter without a host", meter.Mpan)
		}
		if meter.FixedTariff != "" {
			if _, ok := c.FixedTariffs[meter.FixedTariff]; !ok {
				return fmt.Errorf("electricity meter %s refers to unknown fixed tariff '%s'", meter.Mpan, meter.FixedTariff)
			}
		}
	}

	for _, meter := range c.Gas {
		if meter.Mprn == "" || meter.SerialNumber == "" {
			return fmt.Errorf("gas meter requires an mprn and serial number")
		}
		if meter.TariffCode == "" && c.Octopus.AccountID == "" {
			return fmt.Errorf("gas meter %s requires a tariff code or an account id", meter.Mprn)
		}
		if meter.CalorificValue <= 0 {
			return fmt.Errorf("gas meter %s requires a positive calorific value", meter.Mprn)
		}
	}

	if c.SensorUpdateIntervalSecs <= 0 {
		return fmt.Errorf("sensor update interval must be positive")
	}

	return nil
}

package octopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cepro/tariffsensors/consumption"
	"github.com/cepro/tariffsensors/rates"
	"github.com/cepro/tariffsensors/tariff"
)

const (
	DefaultBaseUrl = "https://api.octopus.energy/v1"

	consumptionPageSize = 25000
)

// ErrDayNightRates is returned when half-hourly rates are requested for a day/night tariff: the API only publishes
// those as separate day and night prices without the times that they apply.
var ErrDayNightRates = errors.New("day/night tariffs do not publish standard unit rates")

// Client implements the parts of the Octopus Energy REST API that are needed to build the tariff sensors.
type Client struct {
	httpClient http.Client
	baseUrl    string
	apiKey     string
	logger     *slog.Logger
}

func New(httpClient http.Client, baseUrl, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		baseUrl:    baseUrl,
		apiKey:     apiKey,
		logger:     slog.Default().With("host", baseUrl),
	}
}

// ElectricityRates returns the half-hourly unit rates for the given tariff between `from` and `to`.
func (c *Client) ElectricityRates(ctx context.Context, tariffCode string, from, to time.Time) ([]rates.Rate, error) {
	return c.unitRates(ctx, tariff.Electricity, tariffCode, from, to)
}

// GasRates returns the unit rates for the given gas tariff between `from` and `to`.
func (c *Client) GasRates(ctx context.Context, tariffCode string, from, to time.Time) ([]rates.Rate, error) {
	return c.unitRates(ctx, tariff.Gas, tariffCode, from, to)
}

// ElectricityStandingCharge returns the standing charge (pence per day, inc VAT) that applies at `t`.
func (c *Client) ElectricityStandingCharge(ctx context.Context, tariffCode string, t time.Time) (float64, error) {
	return c.standingCharge(ctx, tariff.Electricity, tariffCode, t)
}

// GasStandingCharge returns the standing charge (pence per day, inc VAT) that applies at `t`.
func (c *Client) GasStandingCharge(ctx context.Context, tariffCode string, t time.Time) (float64, error) {
	return c.standingCharge(ctx, tariff.Gas, tariffCode, t)
}

// ElectricityConsumption returns the half-hourly consumption recorded by the given meter between `from` and `to`.
func (c *Client) ElectricityConsumption(ctx context.Context, mpan, serialNumber string, from, to time.Time) ([]consumption.Consumption, error) {
	path := fmt.Sprintf("/electricity-meter-points/%s/meters/%s/consumption/", url.PathEscape(mpan), url.PathEscape(serialNumber))
	return c.consumption(ctx, path, from, to)
}

// GasConsumption returns the half-hourly consumption recorded by the given meter between `from` and `to`.
func (c *Client) GasConsumption(ctx context.Context, mprn, serialNumber string, from, to time.Time) ([]consumption.Consumption, error) {
	path := fmt.Sprintf("/gas-meter-points/%s/meters/%s/consumption/", url.PathEscape(mprn), url.PathEscape(serialNumber))
	return c.consumption(ctx, path, from, to)
}

// Account returns the properties, meter points and tariff agreements of the given account.
func (c *Client) Account(ctx context.Context, accountID string) (Account, error) {
	var account Account
	err := c.getJSON(ctx, c.baseUrl+fmt.Sprintf("/accounts/%s/", url.PathEscape(accountID)), &account)
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (c *Client) unitRates(ctx context.Context, fuel tariff.Fuel, tariffCode string, from, to time.Time) ([]rates.Rate, error) {
	code, err := tariff.ParseCode(tariffCode)
	if err != nil {
		return nil, err
	}
	if code.IsDayNight() {
		return nil, ErrDayNightRates
	}

	responses, err := getAllPages[rateResponse](ctx, c, c.tariffUrl(fuel, code, "standard-unit-rates", from, to))
	if err != nil {
		return nil, fmt.Errorf("get %s unit rates: %w", fuel, err)
	}

	converted := make([]rates.Rate, 0, len(responses))
	for _, response := range responses {
		validTo := to
		if response.ValidTo != nil {
			validTo = *response.ValidTo
		}
		converted = append(converted, rates.Rate{
			ValidFrom:   response.ValidFrom,
			ValidTo:     validTo,
			ValueIncVat: response.ValueIncVat,
		})
	}

	return rates.Sorted(converted), nil
}

func (c *Client) standingCharge(ctx context.Context, fuel tariff.Fuel, tariffCode string, t time.Time) (float64, error) {
	code, err := tariff.ParseCode(tariffCode)
	if err != nil {
		return 0, err
	}

	// Standing charges change rarely, so look at a day either side of `t` and pick the one that applies
	responses, err := getAllPages[rateResponse](ctx, c, c.tariffUrl(fuel, code, "standing-charges", t.Add(-24*time.Hour), t.Add(24*time.Hour)))
	if err != nil {
		return 0, fmt.Errorf("get %s standing charges: %w", fuel, err)
	}

	for _, response := range responses {
		if response.ValidFrom.After(t) {
			continue
		}
		if response.ValidTo == nil || response.ValidTo.After(t) {
			return response.ValueIncVat, nil
		}
	}

	return 0, fmt.Errorf("no %s standing charge for tariff %s at %s", fuel, tariffCode, t.Format(time.RFC3339))
}

func (c *Client) consumption(ctx context.Context, path string, from, to time.Time) ([]consumption.Consumption, error) {
	query := url.Values{}
	query.Set("period_from", from.UTC().Format(time.RFC3339))
	query.Set("period_to", to.UTC().Format(time.RFC3339))
	query.Set("page_size", fmt.Sprint(consumptionPageSize))
	query.Set("order_by", "period")

	responses, err := getAllPages[consumptionResponse](ctx, c, c.baseUrl+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("get consumption: %w", err)
	}

	converted := make([]consumption.Consumption, 0, len(responses))
	for _, response := range responses {
		converted = append(converted, consumption.Consumption{
			IntervalStart: response.IntervalStart,
			IntervalEnd:   response.IntervalEnd,
			Value:         response.Consumption,
		})
	}

	return consumption.Sorted(converted), nil
}

// tariffUrl builds the URL of one of the per-tariff list endpoints.
func (c *Client) tariffUrl(fuel tariff.Fuel, code tariff.Code, endpoint string, from, to time.Time) string {
	query := url.Values{}
	query.Set("period_from", from.UTC().Format(time.RFC3339))
	query.Set("period_to", to.UTC().Format(time.RFC3339))

	return fmt.Sprintf("%s/products/%s/%s-tariffs/%s/%s/?%s", c.baseUrl, url.PathEscape(code.ProductCode), fuel, url.PathEscape(code.Raw), endpoint, query.Encode())
}

// getAllPages follows the `next` links of a paginated endpoint and returns the concatenated results.
func getAllPages[T any](ctx context.Context, c *Client, firstUrl string) ([]T, error) {
	var all []T

	next := firstUrl
	for next != "" {
		var parsedResponse page[T]
		err := c.getJSON(ctx, next, &parsedResponse)
		if err != nil {
			return nil, err
		}
		all = append(all, parsedResponse.Results...)

		next = ""
		if parsedResponse.Next != nil {
			next = *parsedResponse.Next
		}
	}

	return all, nil
}

// getJSON performs an authenticated GET and decodes the json body into `into`.
func (c *Client) getJSON(ctx context.Context, url string, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.SetBasicAuth(c.apiKey, "")
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	err = json.NewDecoder(response.Body).Decode(into)
	if err != nil {
		return fmt.Errorf("parse body: %w", err)
	}

	c.logger.Debug("Octopus API request", "url", url)

	return nil
}

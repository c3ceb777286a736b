package rates

import "time"

// createRateData returns half-hourly rates between `from` and `to`, cycling through the given `values`.
func createRateData(from, to time.Time, values []float64) []Rate {
	var rates []Rate
	i := 0
	for t := from; t.Before(to); t = t.Add(30 * time.Minute) {
		rates = append(rates, Rate{
			ValidFrom:   t,
			ValidTo:     t.Add(30 * time.Minute),
			ValueIncVat: values[i%len(values)],
		})
		i++
	}
	return rates
}

// mustParseTime returns the time.Time associated with the given string or panics.
func mustParseTime(str string) time.Time {
	time, err := time.Parse(time.RFC3339, str)
	if err != nil {
		panic(err)
	}
	return time
}

package timeutils

import (
	"testing"
	"time"
)

func TestStartOfSettlementPeriod(t *testing.T) {

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("Failed to load London time: %v", err)
	}

	type subTest struct {
		name         string
		dateStr      string
		sp           int
		expectedTime time.Time
		expectErr    bool
	}

	subTests := []subTest{
		{"GMT1", "2023-12-11", 22, mustParseTime("2023-12-11T10:30:00+00:00"), false},
		{"GMT2", "2023-12-11", 1, mustParseTime("2023-12-11T00:00:00+00:00"), false},
		{"GMT3", "2023-12-11", 48, mustParseTime("2023-12-11T23:30:00+00:00"), false},
		{"BST1", "2023-06-01", 22, mustParseTime("2023-06-01T10:30:00+01:00"), false},
		{"Clock change back 3", "2023-10-29", 4, mustParseTime("2023-10-29T01:30:00+01:00"), false},
		{"Clock change back 4", "2023-10-29", 5, mustParseTime("2023-10-29T01:00:00+00:00"), false},
		{"Clock change back 7", "2023-10-29", 50, mustParseTime("2023-10-29T23:30:00+00:00"), false},
		{"Clock change forward 3", "2023-03-26", 3, mustParseTime("2023-03-26T02:00:00+01:00"), false},
		{"Clock change forward 4", "2023-03-26", 46, mustParseTime("2023-03-26T23:30:00+01:00"), false},
		{"Invalid SP", "2023-03-26", 51, time.Time{}, true},
		{"Invalid date", "2023-13-26", 1, time.Time{}, true},
	}
	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			actualTime, err := StartOfSettlementPeriod(subTest.dateStr, subTest.sp, london)
			if (err != nil) != subTest.expectErr {
				t.Errorf("Got error %v, expected error: %t", err, subTest.expectErr)
			}
			if !actualTime.Equal(subTest.expectedTime) {
				t.Errorf("Got %v, expected %v", actualTime, subTest.expectedTime)
			}
		})
	}

}

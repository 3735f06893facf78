package domain

import (
	"fmt"
	"strconv"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

const (
	testHouse      = "1"
	testQueueGroup = "GPV1.2"
	testDay        = int64(1762639200) // 2025-11-09 00:00 Europe/Kyiv
)

func kyiv(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	return loc
}

// at returns 2025-11-09 hh:mm in Kyiv.
func at(t *testing.T, hh, mm int) time.Time {
	t.Helper()
	return time.Date(2025, time.November, 9, hh, mm, 0, 0, kyiv(t))
}

func testLegend() map[string]LegendEntry {
	legend := make(map[string]LegendEntry, hoursPerDay)
	for i := 1; i <= hoursPerDay; i++ {
		legend[strconv.Itoa(i)] = LegendEntry{
			Label:      fmt.Sprintf("%02d-%02d", i-1, i),
			ClockStart: fmt.Sprintf("%02d:00", i-1),
			ClockEnd:   fmt.Sprintf("%02d:00", i),
		}
	}
	return legend
}

func testDescriptions() map[string]string {
	return map[string]string{
		"yes":    "Світло є",
		"no":     "Світла немає",
		"first":  "Світла не буде перші 30 хв.",
		"second": "Світла не буде другі 30 хв",
		"maybe":  "Можливо відключення",
	}
}

// hoursWith builds a 24-hour schedule of "yes" overridden by flagged.
func hoursWith(flagged map[int]StatusCode) HourSchedule {
	hours := make(HourSchedule, hoursPerDay)
	for i := 1; i <= hoursPerDay; i++ {
		status := StatusYes
		if s, ok := flagged[i]; ok {
			status = s
		}
		hours[strconv.Itoa(i)] = status
	}
	return hours
}

func testDocument(hours HourSchedule) *RawDocument {
	return &RawDocument{
		Addresses: map[string]AddressStatus{
			testHouse: {QueueGroupRef: []string{testQueueGroup}},
		},
		Preset: &Preset{
			ScheduleLegend:     testLegend(),
			StatusDescriptions: testDescriptions(),
		},
		Fact: &Fact{
			QueueSchedules: map[string]map[string]HourSchedule{
				dayKey(testDay): {testQueueGroup: hours},
			},
			ReferenceDayTimestamp: testDay,
		},
		UpdateTimestamp: "08:18 09.11.2025",
	}
}

// realWorldSchedule is a schedule observed on the provider's site.
func realWorldSchedule() HourSchedule {
	return hoursWith(map[int]StatusCode{
		1: StatusSecond, 2: StatusNo, 3: StatusNo, 4: StatusNo,
		12: StatusNo, 18: StatusNo,
		22: StatusSecond, 23: StatusNo, 24: StatusNo,
	})
}

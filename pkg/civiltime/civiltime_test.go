package civiltime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 450, minutes)

	for _, invalid := range []string{"7:30", "25:00", "10:60", "1030", "ab:cd", "10:3", ""} {
		_, err := ParseClock(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestToAbsoluteAndBack(t *testing.T) {
	zone := MustLoadZone("America/Sao_Paulo")

	instant, err := zone.ToAbsolute("2024-03-04", "18:00")
	require.NoError(t, err)
	// São Paulo is UTC-3 year round since 2019.
	assert.Equal(t, "2024-03-04T21:00:00Z", instant.Format("2006-01-02T15:04:05Z07:00"))

	date, clock := zone.ToLocal(instant)
	assert.Equal(t, "2024-03-04", date)
	assert.Equal(t, "18:00", clock)
}

func TestRoundTripLaw(t *testing.T) {
	zone := MustLoadZone("America/Sao_Paulo")

	dates := []string{"2024-01-01", "2024-02-29", "2024-06-15", "2024-12-31"}
	for _, d := range dates {
		for hour := 0; hour < 24; hour++ {
			for _, minute := range []int{0, 30} {
				clock := fmt.Sprintf("%02d:%02d", hour, minute)
				instant, err := zone.ToAbsolute(d, clock)
				require.NoError(t, err)

				gotDate, gotClock := zone.ToLocal(instant)
				assert.Equal(t, d, gotDate)
				assert.Equal(t, clock, gotClock)
			}
		}
	}
}

func TestToAbsoluteRejectsBadInput(t *testing.T) {
	zone := MustLoadZone("America/Sao_Paulo")

	_, err := zone.ToAbsolute("2024-13-01", "10:00")
	assert.Error(t, err)

	_, err = zone.ToAbsolute("2024-03-04", "10:75")
	assert.Error(t, err)
}

func TestMinutesOfDay(t *testing.T) {
	zone := MustLoadZone("America/Sao_Paulo")

	instant, err := zone.ToAbsolute("2024-03-04", "09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, zone.MinutesOfDay(instant))
}

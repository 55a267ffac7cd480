package service

import "fmt"

// EnumerateSlots returns the bookable half-hour slot labels between openHour
// and closeHour inclusive, e.g. 7..21 yields 07:00, 07:30, ..., 21:00.
func EnumerateSlots(openHour, closeHour int) []string {
	if closeHour < openHour {
		return nil
	}
	slots := make([]string, 0, (closeHour-openHour)*2+1)
	for hour := openHour; hour <= closeHour; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
		if hour < closeHour {
			slots = append(slots, fmt.Sprintf("%02d:30", hour))
		}
	}
	return slots
}

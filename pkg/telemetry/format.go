package telemetry

import (
	"strconv"
	"strings"

	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
)

const fieldCount = 3

var (
	// ErrValueTooLarge is returned when a formatted sample does not fit the characteristic value
	ErrValueTooLarge = errors.New("formatted sample exceeds characteristic buffer")
	// ErrMalformedPayload is returned when a notification payload is not speed,battery,temperature
	ErrMalformedPayload = errors.New("malformed telemetry payload")
)

// Format serializes s as "speed,battery,temperature" with one decimal place each
func Format(s Sample) (string, error) {
	fields := []string{
		strconv.FormatFloat(s.Speed, 'f', 1, 64),
		strconv.FormatFloat(s.Battery, 'f', 1, 64),
		strconv.FormatFloat(s.Temperature, 'f', 1, 64),
	}
	value := strings.Join(fields, ",")
	if len(value) > util.ValueBufferSize {
		return "", errors.Wrapf(ErrValueTooLarge, "%d bytes", len(value))
	}
	return value, nil
}

// Parse decodes a payload produced by Format
func Parse(payload string) (Sample, error) {
	parts := strings.Split(strings.TrimSpace(payload), ",")
	if len(parts) != fieldCount {
		return Sample{}, errors.Wrapf(ErrMalformedPayload, "expected %d fields in %q", fieldCount, payload)
	}
	values := make([]float64, fieldCount)
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return Sample{}, errors.Wrapf(ErrMalformedPayload, "field %d: %s", i, err)
		}
		values[i] = v
	}
	return Sample{Speed: values[0], Battery: values[1], Temperature: values[2]}, nil
}

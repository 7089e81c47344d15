// Package reading turns meter payloads into fixed-layout CSV rows.
package reading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"powerlog/backend/services/collector-service/internal/models"
)

// payload keys
const (
	keyTime      = "time"
	keyFrequency = "frequency"
	keyDeviceID  = "id"
	keyGroup     = "group"
	keyValue     = "value"
	keyCurrent   = "current"
	keyVoltage   = "voltage"
	keyPower     = "power"
	keyReactive  = "reactive power"
	keyCosPhi    = "cos_phi"
)

// ErrNotObject is returned when the payload is valid JSON but not an object.
var ErrNotObject = errors.New("payload is not a JSON object")

type object map[string]json.RawMessage

// Decode parses a raw payload into a Reading. Absent or mistyped fields never
// fail decoding; only payloads that are not a JSON object do.
func Decode(payload []byte) (*models.Reading, error) {
	var doc object
	if err := json.Unmarshal(payload, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decode payload: %w", ErrNotObject)
		}
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode payload: %w", ErrNotObject)
	}

	r := &models.Reading{
		Time:      decodeValue(doc[keyTime]),
		Frequency: decodeValue(doc[keyFrequency]),
		DeviceID:  decodeValue(doc[keyDeviceID]).Text,
	}

	group := asObject(doc[keyGroup])
	for p := models.L1; p < models.PhaseCount; p++ {
		phase := asObject(group[p.Name()])
		r.Phases[p] = models.PhaseValues{
			Current:       quantity(phase, keyCurrent),
			Voltage:       quantity(phase, keyVoltage),
			Power:         quantity(phase, keyPower),
			ReactivePower: quantity(phase, keyReactive),
			CosPhi:        decodeValue(phase[keyCosPhi]),
		}
	}
	return r, nil
}

// quantity reads phase[name].value; a quantity that is not an object counts as absent.
func quantity(phase object, name string) models.Value {
	return decodeValue(asObject(phase[name])[keyValue])
}

func asObject(raw json.RawMessage) object {
	if len(raw) == 0 {
		return nil
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func decodeValue(raw json.RawMessage) models.Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.Value{}
	}

	switch raw[0] {
	case 'n':
		return models.Value{}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return models.Value{Text: string(raw)}
		}
		v := models.Value{Text: s}
		if f, ok := ParseNumber(s); ok {
			v.Num = &f
		}
		return v
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		v := models.Value{Text: string(raw)}
		if f, ok := parseJSONNumber(string(raw)); ok {
			v.Num = &f
		}
		return v
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return models.Value{Text: string(raw)}
		}
		return models.Value{Text: buf.String()}
	}
}

func parseJSONNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// ParseNumber reports whether s is a decimal number the way meter firmware and
// spreadsheet exports write them: surrounding whitespace, a sign, digit-group
// underscores, inf and nan are accepted; hex floats are not.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xXpP") {
		return 0, false
	}
	if strings.Contains(s, "_") {
		var ok bool
		if s, ok = stripDigitSeparators(s); !ok {
			return 0, false
		}
	}
	return parseJSONNumber(s)
}

// stripDigitSeparators removes underscores that sit between two digits.
func stripDigitSeparators(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

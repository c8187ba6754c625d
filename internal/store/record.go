// Package store persists, loads, appends, overwrites, sorts, and filters
// the list of test-outcome records produced by the round driver and binary
// search, tolerating process death between rounds. See spec.md section 4.C.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptStore marks a malformed results file: invalid JSON, a value
// that isn't a JSON array, or a record missing a required field.
var ErrCorruptStore = errors.New("corrupt result store")

// Tally is a test's pass/fail count within one record.
type Tally struct {
	Passes int
	Totals int
}

// MarshalJSON writes a tally as a two-element [passes, totals] array, the
// persisted wire format spec.md section 6.2 pins for passList values.
func (t Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{t.Passes, t.Totals})
}

// UnmarshalJSON reads a [passes, totals] array.
func (t *Tally) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: tally: %v", ErrCorruptStore, err)
	}

	t.Passes = pair[0]
	t.Totals = pair[1]

	return nil
}

// Record is one test-outcome entry: the result of running numTests rounds
// at a given decimation level against a platform's delta file.
//
// PassList and PassOrder together behave as an ordered map: PassOrder
// records test-name insertion order (the order tests were first seen from
// the battery), PassList holds the current tally for each name.
// encoding/json marshals maps in alphabetical key order, which would
// silently reorder passList on every round-trip, so Record marshals
// passList manually instead of delegating to encoding/json for that field.
type Record struct {
	Dec        int
	PassList   map[string]Tally
	PassOrder  []string
	RoundPass  int
	RoundTotal int
	Platform   string
	Filename   string
	Datestamp  string
}

// NewRecord returns an empty record ready for SetTally calls.
func NewRecord(dec int, platform, filename, datestamp string) Record {
	return Record{
		Dec:       dec,
		PassList:  map[string]Tally{},
		Platform:  platform,
		Filename:  filename,
		Datestamp: datestamp,
	}
}

// SetTally records or updates the tally for a test name, preserving the
// order names were first seen -- the round driver creates a test's
// counters on first sight, per spec.md section 9's open question 1.
func (r *Record) SetTally(name string, t Tally) {
	if r.PassList == nil {
		r.PassList = map[string]Tally{}
	}

	if _, ok := r.PassList[name]; !ok {
		r.PassOrder = append(r.PassOrder, name)
	}

	r.PassList[name] = t
}

type recordShadow struct {
	Dec        int             `json:"dec"`
	PassList   json.RawMessage `json:"passList"`
	RoundPass  int             `json:"roundPass"`
	RoundTotal int             `json:"roundTotal"`
	Platform   string          `json:"platform"`
	Filename   string          `json:"filename"`
	Datestamp  string          `json:"datestamp"`
}

// MarshalJSON writes passList as a JSON object in PassOrder, not
// alphabetical, order.
func (r Record) MarshalJSON() ([]byte, error) {
	var passList bytes.Buffer

	passList.WriteByte('{')

	for i, name := range r.PassOrder {
		if i > 0 {
			passList.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("store: marshal passList key %q: %w", name, err)
		}

		val, err := json.Marshal(r.PassList[name])
		if err != nil {
			return nil, fmt.Errorf("store: marshal passList value for %q: %w", name, err)
		}

		passList.Write(key)
		passList.WriteByte(':')
		passList.Write(val)
	}

	passList.WriteByte('}')

	shadow := recordShadow{
		Dec:        r.Dec,
		PassList:   json.RawMessage(passList.Bytes()),
		RoundPass:  r.RoundPass,
		RoundTotal: r.RoundTotal,
		Platform:   r.Platform,
		Filename:   r.Filename,
		Datestamp:  r.Datestamp,
	}

	return json.Marshal(shadow)
}

// UnmarshalJSON reads passList preserving its key order, and validates
// that every field spec.md section 4.C requires is present.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	for _, field := range []string{"dec", "passList", "roundPass", "roundTotal", "platform", "filename", "datestamp"} {
		if _, ok := raw[field]; !ok {
			return fmt.Errorf("%w: record missing required field %q", ErrCorruptStore, field)
		}
	}

	var shadow recordShadow
	if err := json.Unmarshal(data, &shadow); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	order, list, err := decodeOrderedPassList(shadow.PassList)
	if err != nil {
		return err
	}

	r.Dec = shadow.Dec
	r.PassOrder = order
	r.PassList = list
	r.RoundPass = shadow.RoundPass
	r.RoundTotal = shadow.RoundTotal
	r.Platform = shadow.Platform
	r.Filename = shadow.Filename
	r.Datestamp = shadow.Datestamp

	return nil
}

func decodeOrderedPassList(raw json.RawMessage) ([]string, map[string]Tally, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: passList: %v", ErrCorruptStore, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("%w: passList must be a JSON object", ErrCorruptStore)
	}

	var order []string

	list := map[string]Tally{}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: passList key: %v", ErrCorruptStore, err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: passList key is not a string", ErrCorruptStore)
		}

		var tally Tally
		if err := dec.Decode(&tally); err != nil {
			return nil, nil, fmt.Errorf("%w: passList[%q]: %v", ErrCorruptStore, key, err)
		}

		if _, exists := list[key]; !exists {
			order = append(order, key)
		}

		list[key] = tally
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("%w: passList: %v", ErrCorruptStore, err)
	}

	return order, list, nil
}

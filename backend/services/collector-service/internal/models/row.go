package models

import (
	"errors"
	"time"
)

// RowWidth is the fixed number of fields in every CSV row.
const RowWidth = 17

// Row is one formatted line of the output file, in Header order.
type Row [RowWidth]string

// Fields returns the row as a slice.
func (r Row) Fields() []string {
	return r[:]
}

// Header is the column layout of the output file. Row fields follow the same order.
var Header = Row{
	"Time", "Frequency",
	"L1C [A]", "L1V [V]", "L1P", "L1Q [kVar]", "L1CosPhi",
	"L2C [A]", "L2V [V]", "L2P [kW]", "L2Q [kVar]", "L2CosPhi",
	"L3C [A]", "L3V [V]", "L3P [kW]", "L3Q [kVar]", "L3CosPhi",
}

// ErrNotFound is returned by stores that have nothing recorded yet.
var ErrNotFound = errors.New("reading not found")

// ReadingRecord is a row mirrored to the database.
type ReadingRecord struct {
	ID         int64     `db:"id" json:"id"`
	DeviceID   string    `db:"device_id" json:"device_id,omitempty"`
	Topic      string    `db:"topic" json:"topic"`
	Row        Row       `json:"row"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
}

// Snapshot is the most recently written row together with its origin.
type Snapshot struct {
	DeviceID   string    `json:"device_id,omitempty"`
	Topic      string    `json:"topic"`
	ReceivedAt time.Time `json:"received_at"`
	Columns    []string  `json:"columns"`
	Row        Row       `json:"row"`
}

package phpserialize

import (
	"fmt"
	"reflect"
	"time"
)

// DateTimeClass is the PHP class name of DateTime objects.
const DateTimeClass = "DateTime"

// DateTimeLayout is the layout PHP uses for the date property.
const DateTimeLayout = "2006-01-02 15:04:05.000000"

// PHP timezone_type values.
const (
	TimezoneOffset       = 1
	TimezoneAbbreviation = 2
	TimezoneIdentifier   = 3
)

// DateTime mirrors the properties of a serialized PHP DateTime. Its class
// name is fixed: binding an object of any other class fails.
type DateTime struct {
	Date         string `php:"date"`
	TimezoneType int    `php:"timezone_type"`
	Timezone     string `php:"timezone"`
}

// PhpClassName implements ClassNamer.
func (DateTime) PhpClassName() string {
	return DateTimeClass
}

// ClassName implements Named.
func (d *DateTime) ClassName() string {
	return DateTimeClass
}

// SetClassName implements Named and only accepts DateTime.
func (d *DateTime) SetClassName(name string) error {
	if name != DateTimeClass {
		return fmt.Errorf("class %q cannot be stored in a %s", name, DateTimeClass)
	}
	return nil
}

// NewDateTime converts t. Locations that time.LoadLocation can find again
// are written as identifiers; the local zone and fixed zones as an offset.
func NewDateTime(t time.Time) DateTime {
	d := DateTime{Date: t.Format(DateTimeLayout)}
	if loc := t.Location(); isLoadable(loc) {
		d.TimezoneType = TimezoneIdentifier
		d.Timezone = loc.String()
	} else {
		d.TimezoneType = TimezoneOffset
		d.Timezone = t.Format("-07:00")
	}
	return d
}

// Time parses the date in its timezone.
func (d DateTime) Time() (time.Time, error) {
	var loc *time.Location
	switch d.TimezoneType {
	case TimezoneOffset:
		ref, err := time.Parse("-07:00", d.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone offset %q: %w", d.Timezone, err)
		}
		_, offset := ref.Zone()
		loc = time.FixedZone(d.Timezone, offset)
	case TimezoneAbbreviation, TimezoneIdentifier:
		l, err := time.LoadLocation(d.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown timezone %q: %w", d.Timezone, err)
		}
		loc = l
	default:
		return time.Time{}, fmt.Errorf("unknown timezone_type %d", d.TimezoneType)
	}
	return time.ParseInLocation(DateTimeLayout, d.Date, loc)
}

func isLoadable(loc *time.Location) bool {
	name := loc.String()
	if loc == time.Local || name == "" || name == "Local" {
		return false
	}
	if _, err := time.Parse("-07:00", name); err == nil {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

var timeType = reflect.TypeOf(time.Time{})

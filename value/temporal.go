package value

import (
	"strconv"
	"strings"
	"time"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

// Time returns the instant as a time.Time in the annotated zone. An empty
// annotation is UTC. Fixed offsets are accepted as "+HH:MM", "+HHMM" or
// "+HH" (and the "-" forms); minutes are honoured exactly. Anything else is
// looked up as an IANA zone name.
func (t Timestamp) Time() (time.Time, error) {
	var utc time.Time
	switch t.Unit {
	case Second:
		utc = time.Unix(t.Epoch, 0)
	case Millisecond:
		utc = time.UnixMilli(t.Epoch)
	case Microsecond:
		utc = time.UnixMicro(t.Epoch)
	default:
		utc = time.Unix(0, t.Epoch)
	}
	loc, err := Location(t.TZ)
	if err != nil {
		return time.Time{}, err
	}
	return utc.In(loc), nil
}

// Location resolves a time zone annotation. A bad annotation is an
// invalid argument error.
func Location(tz string) (*time.Location, error) {
	switch tz {
	case "", "UTC", "Z", "utc":
		return time.UTC, nil
	}
	if tz[0] == '+' || tz[0] == '-' {
		secs, err := parseOffset(tz)
		if err != nil {
			return nil, err
		}
		return time.FixedZone(tz, secs), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, pqerr.Wrapf(pqerr.InvalidArgument, err, "failed to load time zone %q", tz)
	}
	return loc, nil
}

func parseOffset(tz string) (int, error) {
	sign := 1
	if tz[0] == '-' {
		sign = -1
	}
	body := strings.ReplaceAll(tz[1:], ":", "")
	var hh, mm string
	switch len(body) {
	case 2:
		hh = body
		mm = "00"
	case 4:
		hh, mm = body[:2], body[2:]
	default:
		return 0, pqerr.Newf(pqerr.InvalidArgument, "invalid time zone offset %q", tz)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h > 23 {
		return 0, pqerr.Newf(pqerr.InvalidArgument, "invalid time zone offset %q", tz)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return 0, pqerr.Newf(pqerr.InvalidArgument, "invalid time zone offset %q", tz)
	}
	return sign * (h*3600 + m*60), nil
}

// Convert returns the epoch count of t expressed in unit. Converting to a
// coarser unit truncates toward negative infinity; ok is false on overflow.
func (t Timestamp) Convert(unit TimeUnit) (epoch int64, ok bool) {
	return ConvertEpoch(t.Epoch, t.Unit, unit)
}

// ConvertEpoch rescales an epoch count between units.
func ConvertEpoch(v int64, from, to TimeUnit) (int64, bool) {
	if from == to {
		return v, true
	}
	f, g := from.PerSecond(), to.PerSecond()
	if g > f {
		mul := g / f
		r := v * mul
		if v != 0 && r/mul != v {
			return 0, false
		}
		return r, true
	}
	div := f / g
	q := v / div
	if v%div != 0 && v < 0 {
		q--
	}
	return q, true
}

package format

import (
	"time"
)

const (
	dosEpochYear = 1980
	dosYearShift = 9
	dosMonthMask = 0x0F
	dosDayMask   = 0x1F
	dosHourShift = 11
	dosMinMask   = 0x3F
	dosSecMask   = 0x1F
)

// DosTimeToTime converts the MS-DOS date and time fields of a ZIP header to
// time.Time. DOS timestamps carry no zone; the result is reported in UTC with
// two-second resolution.
func DosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		int(dosDate>>dosYearShift)+dosEpochYear,
		time.Month(dosDate>>5&dosMonthMask),
		int(dosDate&dosDayMask),
		int(dosTime>>dosHourShift),
		int(dosTime>>5&dosMinMask),
		int(dosTime&dosSecMask)*2,
		0,
		time.UTC,
	)
}

// TimeToDosTime converts t to MS-DOS date and time fields. Times before 1980
// clamp to the DOS epoch.
func TimeToDosTime(t time.Time) (dosDate, dosTime uint16) {
	t = t.UTC()
	if t.Year() < dosEpochYear {
		t = time.Date(dosEpochYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	dosDate = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-dosEpochYear)<<dosYearShift)
	dosTime = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<dosHourShift)
	return dosDate, dosTime
}

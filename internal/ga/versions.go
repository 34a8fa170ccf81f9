package ga

import (
	"errors"
	"strconv"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// Today is the open-ended end date understood by the reporting API.
	Today = "today"

	retentionMonths = 26
)

// ErrUnknownVersion is returned when no catalogue entry matches.
var ErrUnknownVersion = errors.New("unknown app version")

// Version describes the date range in which a simulator release reported data.
type Version struct {
	Name  string `json:"name"`
	Final bool   `json:"final"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Release catalogue. 10 starts when 10.40 went final; 11 when 11.00pb1 went live.
var (
	V10     = Version{Name: "10", Final: false, Start: "2015-09-19", End: "2017-06-01"}
	V1051r2 = Version{Name: "10.51r2", Final: true, Start: "2016-10-26", End: "2017-06-01"}
	V11     = Version{Name: "11", Final: false, Start: "2016-11-24", End: Today}
	V1120r4 = Version{Name: "11.20r4", Final: true, Start: "2018-05-02", End: "2019-01-22"}
	V1126r2 = Version{Name: "11.26r2", Final: true, Start: "2018-08-23", End: "2019-01-22"}
	V1130r1 = Version{Name: "11.30r1", Final: false, Start: "2018-12-14", End: "2018-12-25"}
	V1130r2 = Version{Name: "11.30r2", Final: false, Start: "2018-12-24", End: "2019-01-10"}
	V1130r3 = Version{Name: "11.30r3", Final: true, Start: "2019-01-08", End: "2019-02-02"}
	V1131r1 = Version{Name: "11.31r1", Final: true, Start: "2019-01-26", End: "2019-03-11"}
	V1132r1 = Version{Name: "11.32r1", Final: false, Start: "2019-02-06", End: "2019-02-22"}
	V1132r2 = Version{Name: "11.32r2", Final: true, Start: "2019-02-21", End: "2019-05-01"}
	V1133b1 = Version{Name: "11.33b1", Final: false, Start: "2019-02-21", End: "2019-05-07"}
	V1133r1 = Version{Name: "11.33r1", Final: false, Start: "2019-04-24", End: "2019-08-01"}
	V1133r2 = Version{Name: "11.33r2", Final: true, Start: "2019-04-26", End: Today}
	V1134r1 = Version{Name: "11.34r1", Final: true, Start: "2019-05-07", End: Today}
	V1135b2 = Version{Name: "11.35b2", Final: false, Start: "2019-06-06", End: Today}
)

var catalogue = []Version{
	V10, V1051r2, V11, V1120r4, V1126r2, V1130r1, V1130r2, V1130r3,
	V1131r1, V1132r1, V1132r2, V1133b1, V1133r1, V1133r2, V1134r1, V1135b2,
}

// Versions returns the catalogue in release order.
func Versions() []Version {
	return append([]Version(nil), catalogue...)
}

// VersionByMajor returns the catalogue entry named exactly n.
func VersionByMajor(n int) (Version, error) {
	return VersionByName(strconv.Itoa(n))
}

// VersionByName returns the catalogue entry with the given name.
func VersionByName(name string) (Version, error) {
	for _, v := range catalogue {
		if v.Name == name {
			return v, nil
		}
	}
	return Version{}, ErrUnknownVersion
}

func (v Version) String() string { return v.Name }

// StartDate parses Start.
func (v Version) StartDate() time.Time {
	t, _ := time.Parse(dateLayout, v.Start)
	return t
}

// EndDate parses End, using now's date for open-ended versions.
func (v Version) EndDate(now time.Time) time.Time {
	if v.End == Today {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	t, _ := time.Parse(dateLayout, v.End)
	return t
}

// IsSpecificRelease reports whether v names a point release rather than a major version.
func (v Version) IsSpecificRelease() bool {
	return len(v.Name) > 2
}

// HasFullDataRetention reports whether all of v's data is still inside the
// 26-month retention window ending at now.
func (v Version) HasFullDataRetention(now time.Time) bool {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for i := 0; i < retentionMonths; i++ {
		end = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}
	return v.StartDate().After(end)
}

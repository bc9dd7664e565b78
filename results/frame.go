package results

import (
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	timeutils "github.com/cepro/plantsim/time_utils"
)

// TimestampCol is the name of the explicit time column carried by every result frame.
const TimestampCol = "timestamp"

// TimeLayout is the encoding used for timestamps in result frames and CSV exports.
const TimeLayout = time.RFC3339

// Column pairs a name with a float series for frame construction.
type Column struct {
	Name   string
	Values []float64
}

// Frame builds a time-indexed dataframe with an explicit timestamp column followed by the
// given float columns, all aligned to the index.
func Frame(index timeutils.TimeIndex, cols ...Column) dataframe.DataFrame {
	ss := make([]series.Series, 0, len(cols)+1)
	ss = append(ss, series.New(Timestamps(index), series.String, TimestampCol))
	for _, c := range cols {
		ss = append(ss, series.New(c.Values, series.Float, c.Name))
	}
	return dataframe.New(ss...)
}

// Timestamps encodes the index's timestamps in the frame time layout.
func Timestamps(index timeutils.TimeIndex) []string {
	out := make([]string, index.Len())
	for i, t := range index.Times {
		out[i] = t.Format(TimeLayout)
	}
	return out
}

// ParseTimestamp decodes one frame timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

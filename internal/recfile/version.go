package recfile

import (
	"fmt"
	"regexp"
	"strconv"
)

// Season identifies a game release, written in replays as "Y<year>S<n>".
type Season struct {
	Year   int
	Number int
}

// Supported season range, inclusive.
var (
	MinSeason = Season{Year: 7, Number: 1}
	MaxSeason = Season{Year: 9, Number: 4}
)

// Y8S1 introduced the binary round timer.
var seasonBinaryTimer = Season{Year: 8, Number: 1}

var seasonPattern = regexp.MustCompile(`^Y(\d+)S(\d+)$`)

// ParseSeason parses a season marker such as "Y8S4".
func ParseSeason(value string) (Season, error) {
	m := seasonPattern.FindStringSubmatch(value)
	if m == nil {
		return Season{}, fmt.Errorf("unrecognized season marker %q", value)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return Season{}, fmt.Errorf("season year %q: %w", m[1], err)
	}
	number, err := strconv.Atoi(m[2])
	if err != nil {
		return Season{}, fmt.Errorf("season number %q: %w", m[2], err)
	}
	if number < 1 || number > 4 {
		return Season{}, fmt.Errorf("season number %d out of range", number)
	}
	return Season{Year: year, Number: number}, nil
}

func (s Season) String() string {
	return fmt.Sprintf("Y%dS%d", s.Year, s.Number)
}

// Before reports whether s was released before other.
func (s Season) Before(other Season) bool {
	if s.Year != other.Year {
		return s.Year < other.Year
	}
	return s.Number < other.Number
}

// Supported reports whether the decoder understands replays from s.
func (s Season) Supported() bool {
	return !s.Before(MinSeason) && !MaxSeason.Before(s)
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// UnknownBirthYear is the serialized form of a missing birth year.
const UnknownBirthYear = "UNKNOWN"

// BirthYear is an author's year of birth, which the catalog does not always know.
type BirthYear struct {
	Year  int
	Known bool
}

// Year returns a known birth year.
func Year(y int) BirthYear { return BirthYear{Year: y, Known: true} }

func (b BirthYear) String() string {
	if !b.Known {
		return UnknownBirthYear
	}
	return strconv.Itoa(b.Year)
}

// MarshalJSON writes a number when known and "UNKNOWN" otherwise.
func (b BirthYear) MarshalJSON() ([]byte, error) {
	if !b.Known {
		return json.Marshal(UnknownBirthYear)
	}
	return []byte(strconv.Itoa(b.Year)), nil
}

// UnmarshalJSON accepts a number, a numeric string or "UNKNOWN".
func (b *BirthYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = BirthYear{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == UnknownBirthYear || s == "" {
			*b = BirthYear{}
			return nil
		}
		y, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("birth_year %q: %w", s, err)
		}
		*b = Year(y)
		return nil
	}
	var y int
	if err := json.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("birth_year: %w", err)
	}
	*b = Year(y)
	return nil
}

// Coordinate is one axis of a projected point. When Raw is set the value is
// serialized as that exact string, otherwise as a JSON number.
type Coordinate struct {
	Value float64
	Raw   string
}

// TextCoordinate returns a coordinate that serializes as its shortest exact decimal string.
func TextCoordinate(v float64) Coordinate {
	return Coordinate{Value: v, Raw: strconv.FormatFloat(v, 'g', -1, 64)}
}

// NumericCoordinate returns a coordinate that serializes as a JSON number.
func NumericCoordinate(v float64) Coordinate { return Coordinate{Value: v} }

// IsText reports whether the coordinate serializes as a string.
func (c Coordinate) IsText() bool { return c.Raw != "" }

// MarshalJSON implements json.Marshaler.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if c.Raw != "" {
		return json.Marshal(c.Raw)
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return nil, fmt.Errorf("coordinate %v is not representable", c.Value)
	}
	return []byte(strconv.FormatFloat(c.Value, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		*c = Coordinate{Value: v, Raw: s}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("coordinate %s: %w", data, err)
	}
	*c = Coordinate{Value: v}
	return nil
}

// OutputRecord is a catalog record merged with its projected coordinate.
// Field order is the serialized order.
type OutputRecord struct {
	ID        string     `json:"id"`
	BookPath  string     `json:"book_path"`
	Title     string     `json:"title"`
	Vector    []float64  `json:"vector,omitempty"`
	Author    string     `json:"author"`
	BirthYear BirthYear  `json:"birth_year"`
	Genre     string     `json:"genre"`
	XCoord    Coordinate `json:"x_coord"`
	YCoord    Coordinate `json:"y_coord"`
}

// Point returns the record's position on the map.
func (r OutputRecord) Point() Point {
	return Point{X: r.XCoord.Value, Y: r.YCoord.Value}
}

package tui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bookmap/internal/domain"
)

const (
	allGenres   = "All"
	glyphSingle = '•'
	glyphMany   = '●'
	glyphCursor = '◉'
	glyphEmpty  = ' '
)

// palette is cycled through in genre order.
var palette = []lipgloss.Color{"9", "10", "11", "12", "13", "14", "208", "141", "39", "214"}

// extent is the data rectangle mapped onto the character grid.
type extent struct {
	minX, maxX, minY, maxY float64
}

func extentOf(recs []domain.OutputRecord) extent {
	if len(recs) == 0 {
		return extent{}
	}
	e := extent{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
	for _, r := range recs {
		p := r.Point()
		e.minX = math.Min(e.minX, p.X)
		e.maxX = math.Max(e.maxX, p.X)
		e.minY = math.Min(e.minY, p.Y)
		e.maxY = math.Max(e.maxY, p.Y)
	}
	return e
}

// cell maps p onto a w x h grid. Row 0 is the top, so larger Y is higher up.
func (e extent) cell(p domain.Point, w, h int) (col, row int) {
	col = bucket(p.X, e.minX, e.maxX, w)
	row = h - 1 - bucket(p.Y, e.minY, e.maxY, h)
	return col, row
}

// center is the data point at the middle of a grid cell.
func (e extent) center(col, row, w, h int) domain.Point {
	return domain.Point{
		X: e.minX + (float64(col)+0.5)*(e.maxX-e.minX)/float64(w),
		Y: e.minY + (float64(h-1-row)+0.5)*(e.maxY-e.minY)/float64(h),
	}
}

// radius is one cell diagonal in data units, enough to reach every point of
// the cell from its center.
func (e extent) radius(w, h int) float64 {
	return math.Hypot((e.maxX-e.minX)/float64(w), (e.maxY-e.minY)/float64(h))
}

func bucket(v, lo, hi float64, n int) int {
	if n <= 1 || hi <= lo {
		return (n - 1) / 2
	}
	i := int(math.Floor((v - lo) / (hi - lo) * float64(n)))
	return min(max(i, 0), n-1)
}

type plotCell struct {
	glyph rune
	genre string
}

// plot places recs on a w x h grid. Cells holding several records use a
// heavier glyph and the genre of the last one; the selected record is drawn on top.
func plot(recs []domain.OutputRecord, selected string, e extent, w, h int) [][]plotCell {
	grid := make([][]plotCell, h)
	for i := range grid {
		grid[i] = make([]plotCell, w)
		for j := range grid[i] {
			grid[i][j].glyph = glyphEmpty
		}
	}
	if w <= 0 || h <= 0 {
		return grid
	}
	var cursor *domain.OutputRecord
	for i, r := range recs {
		if r.ID == selected {
			cursor = &recs[i]
			continue
		}
		col, row := e.cell(r.Point(), w, h)
		c := &grid[row][col]
		if c.glyph == glyphEmpty {
			c.glyph = glyphSingle
		} else {
			c.glyph = glyphMany
		}
		c.genre = r.Genre
	}
	if cursor != nil {
		col, row := e.cell(cursor.Point(), w, h)
		grid[row][col] = plotCell{glyph: glyphCursor, genre: cursor.Genre}
	}
	return grid
}

func render(grid [][]plotCell, styles map[string]lipgloss.Style) string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		var b strings.Builder
		for _, c := range row {
			switch {
			case c.glyph == glyphCursor:
				b.WriteString(cursorStyle.Render(string(c.glyph)))
			case c.glyph == glyphEmpty:
				b.WriteRune(c.glyph)
			default:
				b.WriteString(styles[c.genre].Render(string(c.glyph)))
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// genresOf returns "All" followed by the distinct non-empty genres, sorted.
func genresOf(recs []domain.OutputRecord) []string {
	seen := map[string]struct{}{}
	for _, r := range recs {
		if r.Genre != "" {
			seen[r.Genre] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return append([]string{allGenres}, out...)
}

func genreStyles(genres []string) map[string]lipgloss.Style {
	styles := make(map[string]lipgloss.Style, len(genres))
	for i, g := range genres[1:] {
		styles[g] = lipgloss.NewStyle().Foreground(palette[i%len(palette)])
	}
	styles[""] = dimStyle
	return styles
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bookmap/internal/domain"
)

const (
	neighbourCount = 5
	spotLimit      = 8
)

// Library is the viewer-facing subset of the record library.
type Library interface {
	Filter(query string) []domain.OutputRecord
	Neighbors(id string, topK int) ([]domain.Neighbor, error)
	Similar(rec domain.OutputRecord, topK int) ([]domain.Neighbor, error)
	Preview(ctx context.Context, rec domain.OutputRecord) (string, error)
	// Near returns up to limit records within radius of p on the map.
	Near(p domain.Point, radius float64, limit int) ([]domain.Neighbor, error)
}

type previewMsg struct {
	id   string
	text string
	err  error
}

// Model is the Bubble Tea model for the record viewer.
type Model struct {
	lib      Library
	source   string
	input    textinput.Model
	viewport viewport.Model
	matches  []domain.OutputRecord
	previews map[string]string
	status   string
	cursor   int
	ready    bool
	query    string

	extent extent
	genres []string
	styles map[string]lipgloss.Style
	genre  int
	mapW   int
	mapH   int
}

// New creates a viewer over lib. source names the file being shown.
func New(lib Library, source string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Filter by title, author or genre"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{lib: lib, source: source, input: ti, viewport: vp, previews: map[string]string{}}
	m.matches = lib.Filter("")
	m.extent = extentOf(m.matches)
	m.genres = genresOf(m.matches)
	m.styles = genreStyles(m.genres)
	m.status = fmt.Sprintf("%d books. Type to filter, up/down to browse, tab for genres.", len(m.matches))
	return m
}

// Init starts the cursor blink and the first preview.
func (m Model) Init() tea.Cmd { return tea.Batch(textinput.Blink, m.loadPreview()) }

// Update handles key, window and preview events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		mw, mh := mapBoxStyle.GetFrameSize()
		dw, dh := detailBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		pane := max(6, msg.Height-1-(1+qh)-1) // header, query box, status
		m.mapW = max(10, msg.Width*2/5-mw)
		m.mapH = max(3, pane-mh-2) // legend and spot lines
		m.viewport.Width = max(20, msg.Width-m.mapW-mw-dw)
		m.viewport.Height = max(3, pane-dh)
		m.refresh()
		return m, nil
	case previewMsg:
		if msg.err != nil {
			m.previews[msg.id] = "(no preview: " + msg.err.Error() + ")"
		} else {
			m.previews[msg.id] = msg.text
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab", "shift+tab":
			step := 1
			if msg.String() == "shift+tab" {
				step = len(m.genres) - 1
			}
			m.genre = (m.genre + step) % len(m.genres)
			m.applyFilter()
			return m, m.loadPreview()
		case "down":
			if len(m.matches) > 0 {
				m.cursor = (m.cursor + 1) % len(m.matches)
				m.refresh()
				return m, m.loadPreview()
			}
			return m, nil
		case "up":
			if len(m.matches) > 0 {
				m.cursor = (m.cursor - 1 + len(m.matches)) % len(m.matches)
				m.refresh()
				return m, m.loadPreview()
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := strings.TrimSpace(m.input.Value()); q != m.query {
		m.query = q
		m.applyFilter()
		return m, tea.Batch(cmd, m.loadPreview())
	}
	return m, cmd
}

// Genre returns the genre the map and list are restricted to, or "All".
func (m Model) Genre() string { return m.genres[m.genre] }

// applyFilter recomputes matches from the query and the selected genre.
func (m *Model) applyFilter() {
	recs := m.lib.Filter(m.query)
	if g := m.Genre(); g != allGenres {
		kept := recs[:0:0]
		for _, r := range recs {
			if r.Genre == g {
				kept = append(kept, r)
			}
		}
		recs = kept
	}
	m.matches = recs
	m.cursor = 0
	switch {
	case m.query != "":
		m.status = fmt.Sprintf("%d matches for %q", len(m.matches), m.query)
	default:
		m.status = fmt.Sprintf("%d books", len(m.matches))
	}
	if g := m.Genre(); g != allGenres {
		m.status += " in " + g
	}
	m.refresh()
}

// View renders the header, the map and detail panes, the query box and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("bookmap") + " " + dimStyle.Render(m.source)
	if len(m.matches) > 0 {
		header += dimStyle.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.matches)))
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		mapBoxStyle.Render(m.renderMap()),
		detailBoxStyle.Render(m.viewport.View()),
	)
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + panes + "\n" + input + "\n" + status
}

// Selected returns the record under the cursor.
func (m Model) Selected() (domain.OutputRecord, bool) {
	if len(m.matches) == 0 {
		return domain.OutputRecord{}, false
	}
	return m.matches[m.cursor], true
}

func (m *Model) refresh() { m.viewport.SetContent(m.renderDetail()) }

// renderMap draws the matches as a scatter plot, a genre legend and the
// records sharing the selected record's cell.
func (m Model) renderMap() string {
	sel, _ := m.Selected()
	grid := plot(m.matches, sel.ID, m.extent, m.mapW, m.mapH)

	legend := "genre: "
	if g := m.Genre(); g == allGenres {
		legend += g
	} else {
		legend += m.styles[g].Render(g)
	}
	legend += dimStyle.Render("  (tab)")
	return render(grid, m.styles) + "\n" + legend + "\n" + m.renderSpot()
}

// renderSpot lists the records drawn in the same cell as the selection.
func (m Model) renderSpot() string {
	sel, ok := m.Selected()
	if !ok || m.mapW <= 0 || m.mapH <= 0 {
		return ""
	}
	col, row := m.extent.cell(sel.Point(), m.mapW, m.mapH)
	found, err := m.lib.Near(m.extent.center(col, row, m.mapW, m.mapH), m.extent.radius(m.mapW, m.mapH), spotLimit)
	if err != nil {
		return dimStyle.Render("here: " + err.Error())
	}
	var titles []string
	for _, n := range found {
		if c, r := m.extent.cell(n.Record.Point(), m.mapW, m.mapH); c == col && r == row {
			titles = append(titles, n.Record.Title)
		}
	}
	return dimStyle.Render(truncate("here: "+strings.Join(titles, ", "), m.mapW))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func (m Model) loadPreview() tea.Cmd {
	rec, ok := m.Selected()
	if !ok {
		return nil
	}
	if _, done := m.previews[rec.ID]; done {
		return nil
	}
	lib := m.lib
	return func() tea.Msg {
		text, err := lib.Preview(context.Background(), rec)
		return previewMsg{id: rec.ID, text: text, err: err}
	}
}

func (m Model) renderDetail() string {
	rec, ok := m.Selected()
	if !ok {
		return "No matching books."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(rec.Title) + "\n")
	fmt.Fprintf(&b, "%s (%s) · %s\n", rec.Author, rec.BirthYear, rec.Genre)
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s  x=%g y=%g", rec.ID, rec.XCoord.Value, rec.YCoord.Value)) + "\n")

	near, err := m.lib.Neighbors(rec.ID, neighbourCount)
	b.WriteString("\n" + sectionStyle.Render("Nearest on the map") + "\n")
	writeNeighbours(&b, near, err)

	if len(rec.Vector) > 0 {
		similar, err := m.lib.Similar(rec, neighbourCount)
		b.WriteString("\n" + sectionStyle.Render("Closest in text") + "\n")
		writeNeighbours(&b, similar, err)
	}

	b.WriteString("\n" + sectionStyle.Render("Opening") + "\n")
	if p, done := m.previews[rec.ID]; done {
		if p == "" {
			p = "(empty text)"
		}
		b.WriteString(p)
	} else {
		b.WriteString(dimStyle.Render("loading..."))
	}
	return b.String()
}

func writeNeighbours(b *strings.Builder, ns []domain.Neighbor, err error) {
	if err != nil {
		b.WriteString("  error: " + err.Error() + "\n")
		return
	}
	if len(ns) == 0 {
		b.WriteString("  none\n")
		return
	}
	for i, n := range ns {
		fmt.Fprintf(b, "  %d. %s, %s %s\n", i+1, n.Record.Title, n.Record.Author, dimStyle.Render(fmt.Sprintf("d=%.3f", n.Distance)))
	}
}

var (
	detailBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	mapBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	cursorStyle    = lipgloss.NewStyle().Reverse(true).Bold(true)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sectionStyle   = lipgloss.NewStyle().Underline(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

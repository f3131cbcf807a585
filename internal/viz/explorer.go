package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
)

const (
	stepUp   = 1.05
	stepDown = 0.95
)

var (
	sideStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(40)
	graphStyle = lipgloss.NewStyle().Padding(1, 0)
)

// Explorer is a bubbletea model for tuning parameters interactively while
// watching the rotation curve and, when a dataset is loaded, the fit.
type Explorer struct {
	params    efc.Parameters
	initial   efc.Parameters
	paramKeys []string
	selected  int
	ds        *dataset.Dataset
	field     *efc.Field
	result    *validate.Result
	err       error
	showHelp  bool
}

// NewExplorer evaluates the initial state. ds may be nil.
func NewExplorer(p efc.Parameters, ds *dataset.Dataset) (Explorer, error) {
	m := Explorer{
		params:    p,
		initial:   p,
		paramKeys: efc.TunableParams(),
		ds:        ds,
	}
	m.recompute()
	return m, m.err
}

func (m Explorer) Init() tea.Cmd {
	return nil
}

// Update handles key input and re-evaluates on parameter changes.
func (m Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.cycleParam()
	case "up", "k":
		m.adjustParam(stepUp)
	case "down", "j":
		m.adjustParam(stepDown)
	case "r":
		m.params = m.initial
		m.recompute()
	case "t":
		SetTheme(NextTheme())
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Explorer) cycleParam() {
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Explorer) adjustParam(factor float64) {
	name := m.paramKeys[m.selected]
	next, err := m.params.With(name, m.params.Map()[name]*factor)
	if err != nil {
		m.err = err
		return
	}
	m.params = next
	m.recompute()
}

func (m *Explorer) recompute() {
	ev, err := efc.NewEvaluator(m.params)
	if err != nil {
		m.err = err
		return
	}
	m.field, err = ev.Evaluate(efc.Grid(m.params))
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.result = nil
	if m.ds != nil {
		m.result, m.err = validate.Validate(m.params, m.ds)
	}
}

// Params returns the currently selected parameter set.
func (m Explorer) Params() efc.Parameters {
	return m.params
}

// Result returns the fit for the current parameters, nil without a dataset.
func (m Explorer) Result() *validate.Result {
	return m.result
}

func (m Explorer) View() string {
	var graph string
	if m.field != nil && m.field.Len() > 0 {
		graph = asciigraph.Plot(m.field.Velocity,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("rotation velocity, r = 0..%.3g", m.params.MaxRadius())),
		)
	}
	if m.result != nil {
		graph += "\n\n" + ResultChart(m.result)
	}

	var side strings.Builder
	side.WriteString(Title.Render("energy-flow explorer") + "  " + Subtle.Render(CurrentTheme.Name) + "\n\n")
	values := m.params.Map()
	for i, name := range m.paramKeys {
		line := fmt.Sprintf("%-15s %10.4g", name, values[name])
		if i == m.selected {
			side.WriteString(Selected.Render("> "+line) + "\n")
		} else {
			side.WriteString("  " + line + "\n")
		}
	}
	side.WriteString("\n")

	if m.field != nil {
		side.WriteString(row("clamped", fmt.Sprintf("%d/%d", m.field.ClampedCount(), m.field.Len())) + "\n")
	}
	if m.result != nil {
		side.WriteString(row(m.result.MetricType, fmt.Sprintf("%.6g", m.result.FitMetric)) + "\n")
	}
	if m.err != nil {
		side.WriteString(ErrorText.Render(efc.Kind(m.err)+": "+m.err.Error()) + "\n")
	}

	if m.showHelp {
		side.WriteString("\n" + KeyHint.Render("tab next param · ↑/k raise · ↓/j lower\nr reset · t theme · q quit"))
	} else {
		side.WriteString("\n" + KeyHint.Render("? help"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, graphStyle.Render(graph), sideStyle.Render(side.String()))
}

// RunExplorer starts the interactive explorer on the terminal.
func RunExplorer(p efc.Parameters, ds *dataset.Dataset) error {
	m, err := NewExplorer(p, ds)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

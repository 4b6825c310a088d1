// bebobmix is an interactive terminal mixer for BeBoB FireWire audio
// interfaces, built on the bubbletea/lipgloss stack. It shows every level
// control of the configured model and adjusts them in place.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dreamcat4/bebob"
)

const timeoutMs = 100

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("236"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true).
			PaddingLeft(1)
)

// row is one level control in the flattened display list.
type row struct {
	group *bebob.FeatureGroup
	idx   int
	label string

	level int16
	mute  bool
}

// levelsMsg carries freshly read control state.
type levelsMsg struct {
	rows []row
	err  error
}

type model struct {
	avc   *bebob.BebobAvc
	dev   *bebob.Model
	rows  []row
	cur   int
	err   error
	ready bool
}

func newModel(avc *bebob.BebobAvc, dev *bebob.Model) model {
	var rows []row
	for i := range dev.Features {
		group := &dev.Features[i]
		for idx, label := range group.PortLabels {
			rows = append(rows, row{group: group, idx: idx, label: label})
		}
	}

	return model{avc: avc, dev: dev, rows: rows}
}

// readLevels fetches the current level and mute state of every row.
func (m model) readLevels() tea.Cmd {
	return func() tea.Msg {
		rows := make([]row, len(m.rows))
		copy(rows, m.rows)

		for i := range rows {
			level, err := rows[i].group.Controls.ReadLevel(m.avc, rows[i].idx, timeoutMs)
			if err != nil {
				return levelsMsg{err: err}
			}
			rows[i].level = level

			mute, err := rows[i].group.Controls.ReadMute(m.avc, rows[i].idx, timeoutMs)
			if err != nil {
				// Not every feature block implements mute; show the level only.
				mute = false
			}
			rows[i].mute = mute
		}

		return levelsMsg{rows: rows}
	}
}

// adjust writes a new level for the selected row and echoes the state back.
func (m model) adjust(delta int16) tea.Cmd {
	r := m.rows[m.cur]
	target := r.level + delta

	return func() tea.Msg {
		if err := r.group.Controls.WriteLevel(m.avc, r.idx, target, timeoutMs); err != nil {
			return levelsMsg{err: err}
		}

		return nil
	}
}

func (m model) toggleMute() tea.Cmd {
	r := m.rows[m.cur]

	return func() tea.Msg {
		if err := r.group.Controls.WriteMute(m.avc, r.idx, !r.mute, timeoutMs); err != nil {
			return levelsMsg{err: err}
		}

		return nil
	}
}

func (m model) Init() tea.Cmd {
	return m.readLevels()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case levelsMsg:
		if msg.err != nil {
			m.err = msg.err

			return m, nil
		}
		m.rows = msg.rows
		m.ready = true
		m.err = nil

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cur > 0 {
				m.cur--
			}
		case "down", "j":
			if m.cur < len(m.rows)-1 {
				m.cur++
			}
		case "left", "h":
			step := m.rows[m.cur].group.Controls.LevelStep

			return m, tea.Sequence(m.adjust(-step), m.readLevels())
		case "right", "l":
			step := m.rows[m.cur].group.Controls.LevelStep

			return m, tea.Sequence(m.adjust(step), m.readLevels())
		case "m":
			return m, tea.Sequence(m.toggleMute(), m.readLevels())
		case "r":
			return m, m.readLevels()
		}
	}

	return m, nil
}

// bar renders a level as a fixed-width gauge. The usable range runs from
// negative infinity to the level maximum.
func bar(level int16) string {
	const width = 24

	span := int32(width)
	pos := (int32(level) - int32(bebob.VOLUME_NEG_INFINITY)) * span / 0x10000
	if pos < 0 {
		pos = 0
	}
	if pos > span {
		pos = span
	}

	out := make([]byte, width)
	for i := range out {
		if int32(i) < pos {
			out[i] = '='
		} else {
			out[i] = ' '
		}
	}

	return "[" + string(out) + "]"
}

func (m model) View() string {
	var b []byte

	b = append(b, titleStyle.Render(fmt.Sprintf("bebobmix - %s", m.dev.Name))...)
	b = append(b, '\n')

	if !m.ready {
		b = append(b, statusStyle.Render("reading controls...")...)
		b = append(b, '\n')

		return string(b)
	}

	var lastGroup *bebob.FeatureGroup
	for i, r := range m.rows {
		if r.group != lastGroup {
			b = append(b, groupStyle.Render(r.group.Name)...)
			b = append(b, '\n')
			lastGroup = r.group
		}

		line := fmt.Sprintf("  %-18s %s %6d", r.label, bar(r.level), r.level)
		if r.mute {
			line = mutedStyle.Render(line + " [mute]")
		}
		if i == m.cur {
			line = selectedStyle.Render(line)
		}

		b = append(b, line...)
		b = append(b, '\n')
	}

	if m.err != nil {
		b = append(b, errorStyle.Render("error: "+m.err.Error())...)
		b = append(b, '\n')
	}

	b = append(b, statusStyle.Render("up/down select | left/right adjust | m mute | r refresh | q quit")...)
	b = append(b, '\n')

	return string(b)
}

func main() {
	var (
		device    string
		modelName string
	)

	flag.StringVar(&device, "device", "/dev/fw1", "The firewire character device to use.")
	flag.StringVar(&modelName, "model", "", "The device model name.")
	flag.Parse()

	if modelName == "" {
		fmt.Fprintf(os.Stderr, "No model given; known models: %v\n", bebob.ModelNames())
		os.Exit(1)
	}

	dev, err := bebob.LookupModel(modelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	node, err := bebob.OpenFwNode(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", device, err)
		os.Exit(1)
	}
	defer node.Close()

	fcp, err := bebob.NewFcp(node)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error binding FCP: %v\n", err)
		os.Exit(1)
	}
	defer fcp.Close()

	avc := bebob.NewBebobAvc(fcp)

	if _, err := tea.NewProgram(newModel(avc, dev)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

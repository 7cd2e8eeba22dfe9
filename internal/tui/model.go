// Package tui implements the participant scoring screen.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/dscqs/internal/core/config"
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/styles"
	"github.com/colonyops/dscqs/internal/evaluation"
	"github.com/colonyops/dscqs/internal/tui/notify"
)

const coarseSteps = 10

type phase int

const (
	phaseIntro phase = iota
	phaseWaiting
	phaseScoring
)

// Options configures the scoring screen.
type Options struct {
	Scale config.ScaleConfig
	// Instructions is markdown shown before the session starts. Empty
	// skips the instructions screen.
	Instructions string
}

// Model is the bubbletea model of the scoring screen.
type Model struct {
	scoring *Scoring
	keys    keyMap
	help    help.Model

	instructions string
	intro        string
	phase        phase
	width        int

	index   int
	total   int
	trial   plan.Trial
	sliders [2]Slider
	focus   int
	nav     navMsg
	notice  *notify.Notice
}

// New creates the scoring screen bound to s.
func New(s *Scoring, opts Options) Model {
	m := Model{
		scoring:      s,
		keys:         defaultKeyMap(),
		help:         help.New(),
		instructions: opts.Instructions,
		phase:        phaseWaiting,
		index:        -1,
		sliders: [2]Slider{
			{Name: "A", Scale: opts.Scale, Value: Midpoint(opts.Scale)},
			{Name: "B", Scale: opts.Scale, Value: Midpoint(opts.Scale)},
		},
	}
	if strings.TrimSpace(opts.Instructions) != "" {
		m.phase = phaseIntro
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.phase == phaseIntro {
		return nil
	}
	return m.begin()
}

func (m Model) begin() tea.Cmd {
	return func() tea.Msg {
		m.scoring.Begin()
		return nil
	}
}

func (m Model) emit(nav evaluation.Navigation) tea.Cmd {
	return func() tea.Msg {
		m.scoring.Emit(nav)
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if m.instructions != "" {
			if out, err := renderInstructions(m.instructions, msg.Width); err == nil {
				m.intro = out
			}
		}
		return m, nil
	case prepareMsg:
		m.index = -1
		m.nav = navMsg{}
		m.notice = nil
		return m, nil
	case trialMsg:
		m.phase = phaseScoring
		m.index = msg.index
		m.total = msg.total
		m.trial = msg.trial
		m.focus = 0
		for i := range m.sliders {
			m.sliders[i].Value = Midpoint(m.sliders[i].Scale)
		}
		return m, nil
	case navMsg:
		m.nav = msg
		return m, nil
	case noticeMsg:
		n := msg.notice
		m.notice = &n
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Abort) {
		if !m.scoring.Subscribed() {
			return m, tea.Quit
		}
		return m, m.emit(evaluation.NavAbort)
	}

	switch m.phase {
	case phaseIntro:
		if key.Matches(msg, m.keys.Begin) {
			m.phase = phaseWaiting
			return m, m.begin()
		}
		return m, nil
	case phaseWaiting:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.nudge(-1)
	case key.Matches(msg, m.keys.Right):
		m.nudge(1)
	case key.Matches(msg, m.keys.CoarseLeft):
		m.nudge(-coarseSteps)
	case key.Matches(msg, m.keys.CoarseRight):
		m.nudge(coarseSteps)
	case key.Matches(msg, m.keys.Switch):
		m.focus = 1 - m.focus
	case key.Matches(msg, m.keys.Replay):
		if m.nav.prev {
			return m, m.emit(evaluation.NavPrevious)
		}
	case key.Matches(msg, m.keys.Next):
		if m.nav.next || m.nav.isLast {
			return m, m.emit(evaluation.NavNext)
		}
	case key.Matches(msg, m.keys.Finish):
		if m.nav.isLast {
			return m, m.emit(evaluation.NavFinish)
		}
	}
	return m, nil
}

func (m *Model) nudge(steps int) {
	s := &m.sliders[m.focus]
	s.Nudge(steps)
	m.scoring.board.Set(m.index, m.focus, s.Value)
}

func (m Model) View() string {
	switch m.phase {
	case phaseIntro:
		body := m.intro
		if body == "" {
			body = m.instructions
		}
		return body + "\n\n" + styles.SubtitleStyle.Render("enter begin • ctrl+c quit")
	case phaseWaiting:
		return styles.SubtitleStyle.Render("Preparing session…")
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = min(max(m.width-30, 10), 60)
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Video %d of %d", m.index+1, m.total)))
	b.WriteString("\n\n")
	b.WriteString(m.noticeLine())
	b.WriteString("\n\n")

	for i, s := range m.sliders {
		row := fmt.Sprintf("%s  %s  %s", s.Name, s.Bar(barWidth), s.Readout())
		if i == m.focus {
			b.WriteString(styles.SliderFocusedStyle.Render(row))
		} else {
			b.WriteString(styles.SliderBlurredStyle.Render(row))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.ScaleLabelStyle.Render(scaleLegend(m.sliders[0].Scale)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		button("r Replay video", m.nav.prev), " ",
		button("n Next", m.nav.next || m.nav.isLast), " ",
		button("f Finish", m.nav.isLast),
	))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return styles.PanelStyle.Render(b.String())
}

func (m Model) noticeLine() string {
	if m.notice == nil {
		return ""
	}
	if m.notice.Title == "" {
		return styles.NoticeStyle.Render(m.notice.Message)
	}
	return styles.NoticeTitleStyle.Render(m.notice.Title+":") + " " + styles.NoticeStyle.Render(m.notice.Message)
}

func button(label string, enabled bool) string {
	if enabled {
		return styles.ButtonStyle.Render(label)
	}
	return styles.ButtonDisabledStyle.Render(label)
}

// scaleLegend lists the labels from worst to best, matching the left to
// right direction of the sliders.
func scaleLegend(scale config.ScaleConfig) string {
	labels := make([]string, 0, len(scale.Labels))
	for i := len(scale.Labels) - 1; i >= 0; i-- {
		labels = append(labels, scale.Labels[i])
	}
	return fmt.Sprintf("%g %s %g", scale.Min, strings.Join(labels, " · "), scale.Max)
}

package quizcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/quiz"
)

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Result is the outcome of an interactive quiz.
type Result struct {
	Correct   int
	Answered  int
	Completed bool
}

// Take runs the quiz as a terminal program that reads keys from in and draws
// to out.
func Take(ctx context.Context, in io.Reader, out io.Writer, topic string, questions []quiz.Question) (Result, error) {
	program := tea.NewProgram(newTakeModel(topic, questions),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("running quiz: %w", err)
	}

	m, ok := final.(takeModel)
	if !ok {
		return Result{}, errors.New("unexpected quiz model")
	}
	return m.result(), nil
}

type takeKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Pick   key.Binding
	Submit key.Binding
	Quit   key.Binding
}

func (k takeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Pick, k.Submit, k.Quit}
}

func (k takeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Pick}, {k.Submit, k.Quit}}
}

func defaultTakeKeyMap() takeKeyMap {
	return takeKeyMap{
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Pick:   key.NewBinding(key.WithKeys("a", "b", "c", "d", "1", "2", "3", "4"), key.WithHelp("a-d", "answer")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type takeModel struct {
	topic     string
	questions []quiz.Question

	current  int
	cursor   int
	revealed bool
	chosen   int

	correct  int
	answered int
	done     bool
	quit     bool

	keys takeKeyMap
	help help.Model
}

func newTakeModel(topic string, questions []quiz.Question) takeModel {
	return takeModel{
		topic:     topic,
		questions: questions,
		done:      len(questions) == 0,
		keys:      defaultTakeKeyMap(),
		help:      help.New(),
	}
}

func (m takeModel) Init() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	return nil
}

func (m takeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.SetWidth(msg.Width)
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m takeModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quit = true
		return m, tea.Quit
	}
	if m.done {
		return m, tea.Quit
	}

	if m.revealed {
		if key.Matches(msg, m.keys.Submit) {
			return m.next()
		}
		return m, nil
	}

	options := len(m.questions[m.current].Options)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < options-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Pick):
		if i := letterIndex(msg.String(), options); i >= 0 {
			m.cursor = i
			m.answer()
		}
	case key.Matches(msg, m.keys.Submit):
		m.answer()
	}
	return m, nil
}

func (m *takeModel) answer() {
	q := m.questions[m.current]
	m.chosen = m.cursor
	m.revealed = true
	m.answered++
	if q.Options[m.chosen] == q.CorrectAnswer {
		m.correct++
	}
}

func (m takeModel) next() (tea.Model, tea.Cmd) {
	m.revealed = false
	m.cursor = 0
	m.current++
	if m.current >= len(m.questions) {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m takeModel) result() Result {
	return Result{Correct: m.correct, Answered: m.answered, Completed: m.done && !m.quit}
}

func (m takeModel) View() tea.View {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n\n", titleStyle.Render("Quiz: "+m.topic))

	switch {
	case m.done:
		fmt.Fprintf(&b, "  %s %s\n",
			cliui.HeaderStyle.Render("Score:"),
			cliui.AccentStyle.Render(fmt.Sprintf("%d/%d", m.correct, len(m.questions))),
		)
		return tea.NewView(b.String())

	case m.quit:
		fmt.Fprintf(&b, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("Stopped after %d of %d questions", m.answered, len(m.questions))))
		return tea.NewView(b.String())
	}

	q := m.questions[m.current]
	fmt.Fprintf(&b, "  %s\n", progressStyle.Render(fmt.Sprintf("Question %d of %d", m.current+1, len(m.questions))))
	fmt.Fprintln(&b, indent(cardStyle.Render(m.renderCard(q))))
	b.WriteString("\n")

	if m.revealed {
		if q.Options[m.chosen] == q.CorrectAnswer {
			fmt.Fprintf(&b, "  %s %s\n", cliui.SuccessMark, answerStyle.Render("Correct"))
		} else {
			fmt.Fprintf(&b, "  %s %s %s\n", cliui.FailMark, wrongStyle.Render("Incorrect, the answer is"), answerStyle.Render(q.CorrectAnswer))
		}
		b.WriteString("\n")
	}

	b.WriteString("  " + m.help.View(m.keys) + "\n")
	return tea.NewView(b.String())
}

func (m takeModel) renderCard(q quiz.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", numberStyle.Render(fmt.Sprintf("%d.", m.current+1)), questionStyle.Render(q.Question))

	for i, opt := range q.Options {
		letter := letterStyle.Render(string(rune('a'+i)) + ")")
		pointer := "  "
		if i == m.cursor && !m.revealed {
			pointer = cursorStyle.Render("› ")
		}

		text := optionStyle.Render(opt)
		switch {
		case m.revealed && opt == q.CorrectAnswer:
			text = answerStyle.Render(opt) + " " + cliui.SuccessMark
		case m.revealed && i == m.chosen:
			text = wrongStyle.Render(opt) + " " + cliui.FailMark
		case i == m.cursor && !m.revealed:
			text = selectedStyle.Render(opt)
		}

		b.WriteString(pointer + letter + " " + text)
		if i < len(q.Options)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragkb/internal/domain"
)

// AskPort is the TUI-facing subset of the knowledge base service.
type AskPort interface {
	Answer(ctx context.Context, question string, topK int, persona string, generative bool) (string, []domain.QueryHit, error)
}

// Options controls how the TUI asks its questions.
type Options struct {
	TopK       int
	Persona    string
	Generative bool
}

// Model is the Bubble Tea model for the interactive ask loop.
type Model struct {
	service AskPort
	opts    Options

	input    textinput.Model
	viewport viewport.Model
	answer   string
	hits     []domain.QueryHit
	cursor   int
	status   string
	ready    bool
}

// New creates a new TUI model instance.
func New(service AskPort, opts Options) Model {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, opts: opts, input: ti, viewport: vp, status: "Ready. Type a question."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				answer, hits, err := m.service.Answer(context.Background(), q, m.opts.TopK, m.opts.Persona, m.opts.Generative)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.answer = ""
					m.hits = nil
				} else {
					m.status = fmt.Sprintf("Answered %q from %d passages", q, len(hits))
					m.answer = answer
					m.hits = hits
					m.cursor = 0
				}
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "down":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor + 1) % len(m.hits)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor - 1 + len(m.hits)) % len(m.hits)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Knowledge Base")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == "" {
		return "No answer yet."
	}
	if len(m.hits) == 0 {
		return m.answer
	}
	h := m.hits[m.cursor]
	source := sourceStyle.Render(fmt.Sprintf("Source %d/%d  %s  score=%.3f",
		m.cursor+1, len(m.hits), h.Chunk.SourceID, h.Score))
	return m.answer + "\n\n" + source + "\n" + h.Chunk.Text
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pipstale/pipstale/pkg/update"
)

// newPrompter picks the confirmation UI: a bubbletea prompt on a
// normal terminal, a plain line reader in boring mode.
func (c *CLI) newPrompter() update.Prompter {
	if c.plain() {
		return &plainPrompter{in: os.Stdin, out: os.Stdout}
	}
	return &teaPrompter{}
}

// =============================================================================
// confirmModel - single-proposal yes/no/all/quit prompt
// =============================================================================

// confirmModel is the bubbletea model for confirming one version bump.
type confirmModel struct {
	proposal update.Proposal
	decision update.Decision
	answered bool
}

func newConfirmModel(p update.Proposal) confirmModel {
	return confirmModel{proposal: p, decision: update.DecisionNo}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y", "enter":
		m.decision = update.DecisionYes
	case "n", "N":
		m.decision = update.DecisionNo
	case "a", "A":
		m.decision = update.DecisionAll
	case "q", "Q", "esc", "ctrl+c":
		m.decision = update.DecisionQuit
	default:
		return m, nil
	}
	m.answered = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	var b strings.Builder

	p := m.proposal
	b.WriteString(styleTitle.Render("Update "+p.Name()) + " ")
	b.WriteString(styleDim.Render(orNew(p.Current())) + " ")
	b.WriteString(styleDim.Render("→") + " ")
	b.WriteString(styleSuccess.Render(p.Target))
	b.WriteString("\n")
	if url := p.Result.InfoURL; url != "" {
		b.WriteString("  " + styleLink.Render(url) + "\n")
	}
	b.WriteString(styleDim.Render("  y apply  n skip  a apply all  q quit"))
	b.WriteString("\n")

	return b.String()
}

// =============================================================================
// Prompters
// =============================================================================

// teaPrompter runs one confirm prompt per proposal.
type teaPrompter struct{}

func (t *teaPrompter) Confirm(ctx context.Context, p update.Proposal) (update.Decision, error) {
	prog := tea.NewProgram(newConfirmModel(p), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return update.DecisionQuit, err
	}
	m, ok := final.(confirmModel)
	if !ok || !m.answered {
		return update.DecisionQuit, nil
	}
	return m.decision, nil
}

// plainPrompter reads y/n/a/q answers line by line, for boring mode
// and non-terminal stdin.
type plainPrompter struct {
	in  io.Reader
	out io.Writer

	scanner *bufio.Scanner
}

func (p *plainPrompter) Confirm(ctx context.Context, proposal update.Proposal) (update.Decision, error) {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.in)
	}
	for {
		if ctx.Err() != nil {
			return update.DecisionQuit, ctx.Err()
		}
		fmt.Fprintf(p.out, "update %s %s -> %s? [y/n/a/q] ",
			proposal.Name(), orNew(proposal.Current()), proposal.Target)
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return update.DecisionQuit, err
			}
			return update.DecisionQuit, nil // EOF stops the run
		}
		switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
		case "y", "yes":
			return update.DecisionYes, nil
		case "n", "no", "":
			return update.DecisionNo, nil
		case "a", "all":
			return update.DecisionAll, nil
		case "q", "quit":
			return update.DecisionQuit, nil
		}
		fmt.Fprintln(p.out, "please answer y, n, a or q")
	}
}

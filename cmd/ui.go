package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7fffd4")).
			Padding(1, 3).
			MarginLeft(2)
)

// ui writes user-facing output. Logs go to stderr through zerolog.
type ui struct {
	out io.Writer
}

func (u ui) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

func (u ui) println(args ...any) {
	fmt.Fprintln(u.out, args...)
}

func (u ui) success(format string, args ...any) {
	fmt.Fprintf(u.out, "  %s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func (u ui) failure(format string, args ...any) {
	fmt.Fprintf(u.out, "  %s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

func (u ui) info(format string, args ...any) {
	fmt.Fprintf(u.out, "  %s %s\n", cyan("→"), fmt.Sprintf(format, args...))
}

func (u ui) warn(format string, args ...any) {
	fmt.Fprintf(u.out, "  %s %s\n", yellow("!"), fmt.Sprintf(format, args...))
}

func (u ui) divider() {
	fmt.Fprintln(u.out, dim("  "+strings.Repeat("─", 37)))
}

func (u ui) banner() {
	title := bold("A R C A N E A")
	tagline := dim("Imagine a Good Future. Build It.")
	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, bannerStyle.Render(title+"\n"+tagline))
	fmt.Fprintln(u.out)
}

// prompter reads interactive answers.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal used for hidden input, or -1
	fd int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

func (p *prompter) input(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo when attached to a terminal.
func (p *prompter) password(prompt string) (string, error) {
	if p.fd < 0 {
		return p.input(prompt)
	}
	fmt.Fprint(p.out, prompt)
	data, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (p *prompter) confirm(question string, def bool) (bool, error) {
	suffix := " (y/N): "
	if def {
		suffix = " (Y/n): "
	}
	answer, err := p.input("  " + question + suffix)
	if err != nil {
		return false, err
	}
	if answer == "" {
		return def, nil
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

type option struct {
	label    string
	value    string
	detected bool
}

// selectOne returns the chosen value, or the first option on invalid input.
func (p *prompter) selectOne(question string, options []option) (string, error) {
	fmt.Fprintf(p.out, "\n  %s\n", question)
	for i, o := range options {
		fmt.Fprintf(p.out, "    %d. %s\n", i+1, o.label)
	}
	answer, err := p.input(fmt.Sprintf("  Select (1-%d): ", len(options)))
	if err != nil {
		return "", err
	}
	if i, err := strconv.Atoi(answer); err == nil && i >= 1 && i <= len(options) {
		return options[i-1].value, nil
	}
	return options[0].value, nil
}

// selectMany returns the chosen values. An empty answer keeps the detected ones.
func (p *prompter) selectMany(question string, options []option) ([]string, error) {
	fmt.Fprintf(p.out, "\n  %s\n", question)
	var detected []string
	for i, o := range options {
		marker, suffix := " ", ""
		if o.detected {
			marker, suffix = "✓", " (detected)"
			detected = append(detected, o.value)
		}
		fmt.Fprintf(p.out, "    [%s] %d. %s%s\n", marker, i+1, o.label, suffix)
	}
	answer, err := p.input("  Select (comma-separated, e.g. 1,3; enter keeps detected): ")
	if err != nil {
		return nil, err
	}
	if answer == "" {
		return detected, nil
	}

	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(answer, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || i < 1 || i > len(options) || seen[options[i-1].value] {
			continue
		}
		seen[options[i-1].value] = true
		out = append(out, options[i-1].value)
	}
	return out, nil
}

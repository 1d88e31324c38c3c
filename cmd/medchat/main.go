package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/medgrove/med-web-ui/internal/client"
)

const (
	softLimit = 2000
	warnAt    = 1800
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dangerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	boldStyle      = lipgloss.NewStyle().Bold(true)
	italicStyle    = lipgloss.NewStyle().Italic(true)
	codeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237"))
	assistantLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func main() {
	addr := flag.String("addr", envOr("MEDCHAT_ADDR", "http://localhost:8080"), "assistant backend address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cli := client.New(*addr, logger)

	fmt.Println(titleStyle.Render("MedAI") + dimStyle.Render(" — medical assistant terminal"))
	printHealthBanner(cli)
	fmt.Println(dimStyle.Render("Commands: /copy  /clear  /quit"))
	fmt.Println()

	app := &app{
		client:  cli,
		session: client.NewSession(cli),
	}
	app.run()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// printHealthBanner probes the backend once at startup. A degraded or
// unreachable backend is reported, never fatal; input stays open.
func printHealthBanner(cli *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	health, err := cli.Health(ctx)
	switch {
	case err != nil:
		fmt.Println(dangerStyle.Render("● offline") + dimStyle.Render(" — backend unreachable"))
	case health.Ready():
		fmt.Println(titleStyle.Render("● online"))
	default:
		fmt.Println(warnStyle.Render("● limited service"))
	}
}

type app struct {
	client  *client.Client
	session *client.Session

	lastReply string

	promptMu    sync.Mutex
	promptLabel string
	revertTimer *time.Timer
}

func (a *app) run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Print(a.prompt())
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/clear":
			a.clear()
			continue
		case "/copy":
			a.copyLastReply()
			continue
		}

		a.send(line)
	}
}

func (a *app) prompt() string {
	a.promptMu.Lock()
	defer a.promptMu.Unlock()
	if a.promptLabel != "" {
		return dimStyle.Render(a.promptLabel) + "you › "
	}
	return "you › "
}

func (a *app) send(message string) {
	if n := len(message); n >= softLimit {
		fmt.Println(dangerStyle.Render(fmt.Sprintf("note: message is %d chars (soft limit %d)", n, softLimit)))
	} else if n >= warnAt {
		fmt.Println(warnStyle.Render(fmt.Sprintf("note: message is %d chars", n)))
	}

	if a.session.Busy() {
		return
	}

	fmt.Println(dimStyle.Render(time.Now().Format("15:04")))
	fmt.Print(assistantLabel.Render("assistant › "))

	view := &terminalView{}
	outcome, ok := a.session.Send(context.Background(), message, view)
	if !ok {
		return
	}

	switch outcome {
	case client.OutcomeCompleted, client.OutcomeImplicit, client.OutcomeRecovered:
		a.lastReply = view.full
	}
	fmt.Println()
}

func (a *app) clear() {
	if a.session.Busy() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.client.Clear(ctx); err != nil {
		fmt.Println(errorStyle.Render("Could not clear the conversation. Please try again."))
		return
	}
	a.lastReply = ""
	fmt.Println(dimStyle.Render("Conversation cleared."))
}

// copyLastReply puts the last completed assistant reply on the clipboard and
// acknowledges in the prompt label for two seconds. A repeat copy resets the
// revert timer instead of racing it.
func (a *app) copyLastReply() {
	if a.lastReply == "" {
		fmt.Println(dimStyle.Render("Nothing to copy yet."))
		return
	}
	if err := clipboard.WriteAll(a.lastReply); err != nil {
		fmt.Println(errorStyle.Render("Copy failed: " + err.Error()))
		return
	}

	a.promptMu.Lock()
	defer a.promptMu.Unlock()
	a.promptLabel = "copied! "
	if a.revertTimer != nil {
		a.revertTimer.Stop()
	}
	a.revertTimer = time.AfterFunc(2*time.Second, func() {
		a.promptMu.Lock()
		defer a.promptMu.Unlock()
		a.promptLabel = ""
	})
}

// terminalView renders one streamed reply: tokens appear live with a trailing
// cursor, then the full text is erased and re-rendered through the styled
// formatter on completion.
type terminalView struct {
	full  string
	lines int
}

const cursorMark = "▌"

func (v *terminalView) AppendToken(token string) {
	if v.lines == 0 {
		v.lines = 1
	} else {
		// Erase the cursor left by the previous token.
		fmt.Print("\b \b")
	}
	v.full += token
	v.lines += strings.Count(token, "\n")
	fmt.Print(token + cursorMark)
}

func (v *terminalView) Complete(full string) {
	v.eraseStreamed()
	v.full = full
	fmt.Print(renderTerminalMarkdown(full))
	fmt.Println()
	fmt.Print(dimStyle.Render(time.Now().Format("15:04") + " · /copy to copy"))
}

func (v *terminalView) Fail(message string) {
	v.eraseStreamed()
	v.full = ""
	fmt.Print(errorStyle.Render("Error: " + message))
}

// eraseStreamed clears the live-streamed lines so the final render takes
// their place. Long wrapped lines may leave residue; the final text is still
// printed in full below.
func (v *terminalView) eraseStreamed() {
	if v.lines == 0 {
		return
	}
	fmt.Print("\r")
	if v.lines > 1 {
		fmt.Printf("\x1b[%dA", v.lines-1)
	}
	fmt.Print("\x1b[0J")
	v.lines = 0
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+?)`")
)

// renderTerminalMarkdown is the terminal twin of the web fallback formatter:
// the same fixed subset, styled with ANSI instead of HTML tags.
func renderTerminalMarkdown(s string) string {
	s = boldRe.ReplaceAllStringFunc(s, func(m string) string {
		return boldStyle.Render(boldRe.FindStringSubmatch(m)[1])
	})
	s = italicRe.ReplaceAllStringFunc(s, func(m string) string {
		return italicStyle.Render(italicRe.FindStringSubmatch(m)[1])
	})
	s = codeRe.ReplaceAllStringFunc(s, func(m string) string {
		return codeStyle.Render(codeRe.FindStringSubmatch(m)[1])
	})
	return s
}

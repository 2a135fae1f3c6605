package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	"github.com/zhouzirui/z-advisor/backend/internal/render"
)

// display renders conversation messages as markdown in the terminal.
type display struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	name     string
}

func newDisplay(out io.Writer, p profile.Profile) *display {
	width := terminalWidth()
	// A nil renderer prints raw markdown.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)
	return &display{out: out, renderer: renderer, name: p.Name}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	return width
}

// messageMarkdown is the markdown source shown for one message.
func messageMarkdown(msg chat.Message, userName string) string {
	var b strings.Builder
	if msg.FromUser() {
		if userName == "" {
			userName = "You"
		}
		fmt.Fprintf(&b, "**%s:** %s\n", userName, msg.Content)
		return b.String()
	}

	fmt.Fprintf(&b, "**Advisor:** %s\n", msg.Content)
	if table := render.Markdown(msg.Chart); table != "" {
		b.WriteString("\n")
		b.WriteString(table)
	}
	return b.String()
}

// profileMarkdown summarizes the profile shown in the sidebar of the web UI.
func profileMarkdown(p profile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", p.Name)
	fmt.Fprintf(&b, "- Risk level: %s\n", p.RiskLevel)
	fmt.Fprintf(&b, "- Portfolio: %s\n", render.Amount(p.PortfolioValue))
	fmt.Fprintf(&b, "- Retirement: %s of %s (%.1f%%), %d years to go\n",
		render.Amount(p.RetirementSavings), render.Amount(p.RetirementGoal), p.GoalProgress(), p.YearsToRetirement())
	b.WriteString("\nCommands: /risk <level> | /clear | /exit\n")
	return b.String()
}

func (d *display) print(markdown string) {
	if d.renderer != nil {
		if out, err := d.renderer.Render(markdown); err == nil {
			fmt.Fprint(d.out, out)
			return
		}
	}
	fmt.Fprintln(d.out, markdown)
}

func (d *display) message(msg chat.Message) {
	d.print(messageMarkdown(msg, d.name))
}

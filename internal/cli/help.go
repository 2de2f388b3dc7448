package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/barrace/internal/config"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Gold)

	helpTaglineStyle = lipgloss.NewStyle().
				Foreground(Silver).
				Italic(true)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Bronze).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(Gold)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(Track).
			Bold(true)

	helpEnvStyle = lipgloss.NewStyle().
			Foreground(Silver)

	helpNoteStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)
)

// helpExamples close the help page.
var helpExamples = []string{
	"barrace gdp.csv gdp.mp4 --title 'GDP by country' --n-bars 10",
	"barrace gdp.csv gdp.gif --orientation v --fps 15",
	"barrace gdp.csv 1999.png --snapshot 3",
}

// helpRow is one aligned line of a help section.
type helpRow struct {
	name  string
	help  string
	notes []string
}

// StyledHelpPrinter renders kong help as podium-coloured sections: the
// positional arguments, each flag group, then the environment variables
// in env and a few example invocations.
func StyledHelpPrinter(env []config.EnvVar) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render("Bar Race 🏁"))
		sb.WriteString("\n")
		sb.WriteString(helpTaglineStyle.Render(Tagline))
		sb.WriteString("\n")

		writeHelpSection(&sb, "Usage:", []helpRow{{name: ctx.Model.Name + " <input> <output> [flags]"}}, lipgloss.NewStyle())
		writeHelpSection(&sb, "Arguments:", argumentRows(ctx), helpArgStyle)

		titles, groups := flagRows(ctx)
		for _, title := range titles {
			writeHelpSection(&sb, title, groups[title], helpFlagStyle)
		}

		envRows := make([]helpRow, len(env))
		for i, v := range env {
			envRows[i] = helpRow{name: v.Key, help: v.Description}
		}
		writeHelpSection(&sb, "Environment:", envRows, helpEnvStyle)

		examples := make([]helpRow, len(helpExamples))
		for i, e := range helpExamples {
			examples[i] = helpRow{name: e}
		}
		writeHelpSection(&sb, "Examples:", examples, helpNoteStyle)

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

// writeHelpSection pads every name to the widest one so the help text
// lines up in a single column.
func writeHelpSection(sb *strings.Builder, title string, rows []helpRow, nameStyle lipgloss.Style) {
	if len(rows) == 0 {
		return
	}
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.name))
	}

	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(r.name))
		if r.help != "" || len(r.notes) > 0 {
			sb.WriteString(strings.Repeat(" ", width-lipgloss.Width(r.name)+3))
			sb.WriteString(r.help)
		}
		for _, n := range r.notes {
			sb.WriteString(" ")
			sb.WriteString(helpNoteStyle.Render(n))
		}
		sb.WriteString("\n")
	}
}

func argumentRows(ctx *kong.Context) []helpRow {
	var rows []helpRow
	for _, arg := range ctx.Model.Node.Positional {
		rows = append(rows, helpRow{name: arg.Summary(), help: arg.Help})
	}
	return rows
}

// flagRows sorts the visible flags into their groups, keeping the order
// groups first appear in. Ungrouped flags come first under "Flags:".
func flagRows(ctx *kong.Context) ([]string, map[string][]helpRow) {
	const general = "Flags:"
	titles := []string{general}
	groups := map[string][]helpRow{
		general: {{name: "-h, --help", help: "Show this help."}},
	}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		title := general
		if f.Group != nil {
			title = f.Group.Title
		}
		if _, ok := groups[title]; !ok {
			titles = append(titles, title)
		}
		groups[title] = append(groups[title], flagRow(f))
	}

	return titles, groups
}

func flagRow(f *kong.Flag) helpRow {
	name := "    --" + f.Name
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	}
	if !f.IsBool() {
		placeholder := f.PlaceHolder
		if placeholder == "" {
			placeholder = f.FormatPlaceHolder()
		}
		name += "=" + strings.ToUpper(placeholder)
	}

	row := helpRow{name: name, help: f.Help}
	// Negative sentinels mean "not set" and read as noise in help.
	if f.HasDefault && !f.IsBool() && f.Default != "" && !strings.HasPrefix(f.Default, "-") {
		row.notes = append(row.notes, "(default: "+f.Default+")")
	}
	for _, e := range f.Envs {
		row.notes = append(row.notes, "($"+e+")")
	}
	return row
}

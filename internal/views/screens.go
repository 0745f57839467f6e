package views

import (
	"fmt"
	"strings"
)

type ListingRowData struct {
	Line     string
	Window   string
	Selected bool
}

type ListingData struct {
	PageBanner string
	Banner     string
	Sort       string
	Rows       []ListingRowData
}

type DialogData struct {
	Title  string
	Prompt string
	Body   string
	Error  string
	Hint   string
}

type HelpPanelData struct {
	Mode     string
	Bindings []string
	HelpView string
}

// RenderListing keeps exactly one line per row after the two banner lines so
// screen rows map back to listing rows.
func RenderListing(data ListingData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  sort: %s\n", data.PageBanner, data.Sort))
	b.WriteString(bannerStyle.Render(data.Banner))
	if len(data.Rows) == 0 {
		b.WriteString("\n (no trackers, press n to add one)")
		return b.String()
	}
	for _, row := range data.Rows {
		line := row.Line
		if row.Window != "" {
			line += "  " + bannerStyle.Render(row.Window)
		}
		if row.Selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}

func RenderDialog(data DialogData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(data.Title))
	if data.Prompt != "" {
		b.WriteString("\n" + data.Prompt)
	}
	if data.Body != "" {
		b.WriteString("\n" + data.Body)
	}
	if data.Error != "" {
		b.WriteString("\n" + errorStyle.Render("error: "+data.Error))
	}
	if data.Hint != "" {
		b.WriteString("\n" + footerStyle.Render(data.Hint))
	}
	return b.String()
}

func RenderDetail(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return titleStyle.Render(title) + "\n" + body
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

// RenderHelpPanel renders the bindings as a markdown list followed by the
// compact key help line.
func RenderHelpPanel(data HelpPanelData) string {
	var md strings.Builder
	md.WriteString(fmt.Sprintf("## %s keys\n\n", strings.ToLower(data.Mode)))
	for _, line := range data.Bindings {
		md.WriteString("- " + line + "\n")
	}
	out := RenderMarkdown(md.String())
	if data.HelpView != "" {
		out += "\n" + data.HelpView
	}
	return out
}

package report

import (
	"fmt"
	"html"
	"strings"

	md "github.com/russross/blackfriday/v2"

	"gcode-toolpath/pkg/toolpath"
)

const pageStyle = `body { font-family: sans-serif; margin: 40px; max-width: 820px; }
h1 { color: #333; }
table { border-collapse: collapse; }
td { padding: 2px 12px 2px 0; }
li strong { text-transform: uppercase; }`

// HTML renders the Markdown report as a standalone page. Raw HTML in the
// input, e.g. from a file name, is dropped.
func HTML(m *toolpath.Metrics, src Source) string {
	title := "Toolpath report"
	if src.Name != "" {
		title += ": " + src.Name
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n", html.EscapeString(title), pageStyle)
	renderer := md.NewHTMLRenderer(md.HTMLRendererParameters{Flags: md.CommonHTMLFlags | md.SkipHTML})
	sb.Write(md.Run([]byte(Markdown(m, src)), md.WithRenderer(renderer)))
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

package export

import (
	"bytes"
	"html/template"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const reportPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<style>
body { font-family: "Times New Roman", Times, serif; max-width: 50em; margin: 2em auto; line-height: 1.5; }
h1, h2, h3 { font-weight: normal; }
</style>
</head>
<body>
<h1>{{ .Title }}</h1>
{{ .Body }}
</body>
</html>
`

var reportPage = template.Must(template.New("report").Parse(reportPageTemplate))

// RenderMarkdownReport renders the synthesis, treated as markdown, into a
// standalone HTML page without another remote call.
func RenderMarkdownReport(title string, synthesis string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	body := &bytes.Buffer{}
	if err := md.Convert([]byte(synthesis), body); err != nil {
		return "", errors.Wrap(err, "could not render synthesis as markdown")
	}

	out := &bytes.Buffer{}
	err := reportPage.Execute(out, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", errors.Wrap(err, "could not render report page")
	}
	return out.String(), nil
}

// RenderTerminal writes markdown to w, styled with glamour when w is a
// terminal.
func RenderTerminal(w io.Writer, markdown string, isTerminal bool) error {
	if !isTerminal {
		_, err := io.WriteString(w, markdown+"\n")
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return errors.Wrap(err, "could not create terminal renderer")
	}
	out, err := r.Render(markdown)
	if err != nil {
		return errors.Wrap(err, "could not render markdown")
	}
	_, err = io.WriteString(w, out)
	return err
}

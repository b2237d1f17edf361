// Package report renders a batch of stripping results as a standalone
// HTML page.
package report

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/pdfstrip"
)

// Entry is the outcome for one input file. Err is set when the file could
// not be processed; Report is nil then.
type Entry struct {
	File   string
	Output string
	Report *pdfstrip.Report
	Err    error
}

// Failed reports whether the file produced no output.
func (e Entry) Failed() bool { return e.Err != nil || e.Report == nil }

const style = `body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:right}
td.file,th.file{text-align:left}
tr.failed td{background:#fdd}
ul.warnings{color:#850}`

var columns = []string{"File", "Pages", "Images", "Removed", "Kept", "Before", "After", "Status"}

// Write renders entries as an HTML document.
func Write(w io.Writer, title string, entries []Entry) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element("html")
	doc.AppendChild(root)

	head := element("head")
	head.AppendChild(element("meta", html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(withText(element("title"), title))
	head.AppendChild(withText(element("style"), style))
	root.AppendChild(head)

	body := element("body")
	body.AppendChild(withText(element("h1"), title))
	body.AppendChild(withText(element("p"), summary(entries)))
	body.AppendChild(table(entries))
	for _, e := range entries {
		if list := warnings(e); list != nil {
			body.AppendChild(withText(element("h2"), e.File))
			body.AppendChild(list)
		}
	}
	root.AppendChild(body)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func summary(entries []Entry) string {
	var failed, removed, saved int
	for _, e := range entries {
		if e.Failed() {
			failed++
			continue
		}
		removed += e.Report.ImagesRemoved
		saved += e.Report.InputSize - e.Report.OutputSize
	}
	return fmt.Sprintf("%d files processed, %d failed. %d images removed, %s saved.",
		len(entries), failed, removed, FormatSize(saved))
}

func table(entries []Entry) *html.Node {
	t := element("table")
	header := element("tr")
	for _, c := range columns {
		th := withText(element("th"), c)
		if c == "File" {
			th.Attr = append(th.Attr, html.Attribute{Key: "class", Val: "file"})
		}
		header.AppendChild(th)
	}
	t.AppendChild(header)

	for _, e := range entries {
		row := element("tr")
		name := withText(element("td", html.Attribute{Key: "class", Val: "file"}), e.File)
		row.AppendChild(name)
		if e.Failed() {
			row.Attr = append(row.Attr, html.Attribute{Key: "class", Val: "failed"})
			msg := "failed"
			if e.Err != nil {
				msg = e.Err.Error()
			}
			cell := withText(element("td", html.Attribute{Key: "colspan", Val: strconv.Itoa(len(columns) - 1)}), msg)
			row.AppendChild(cell)
			t.AppendChild(row)
			continue
		}

		r := e.Report
		for _, v := range []string{
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.ImagesSeen),
			strconv.Itoa(r.ImagesRemoved),
			strconv.Itoa(r.ImagesKept),
			FormatSize(r.InputSize),
			FormatSize(r.OutputSize),
			status(e),
		} {
			row.AppendChild(withText(element("td"), v))
		}
		t.AppendChild(row)
	}
	return t
}

func status(e Entry) string {
	switch {
	case e.Report.ValidationFallback:
		return "unvalidated"
	case len(e.Report.Warnings) > 0:
		return strconv.Itoa(len(e.Report.Warnings)) + " warnings"
	}
	return "ok"
}

func warnings(e Entry) *html.Node {
	if e.Failed() || len(e.Report.Warnings) == 0 {
		return nil
	}
	list := element("ul", html.Attribute{Key: "class", Val: "warnings"})
	for _, w := range e.Report.Warnings {
		list.AppendChild(withText(element("li"), w.Error()))
	}
	return list
}

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	return n
}

// FormatSize renders a byte count with a binary unit, such as "1.5 MiB".
func FormatSize(n int) string {
	const unit = 1024
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	if n < unit {
		return sign + strconv.Itoa(n) + " B"
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %ciB", sign, float64(n)/float64(div), "KMGTPE"[exp])
}

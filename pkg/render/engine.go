package render

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/template/html/v2"
	"github.com/yosssi/gohtml"
)

//go:embed views
var viewsFS embed.FS

// Head is the data of the shared <head> and top bar partials.
type Head struct {
	PageTitle  string
	Refresh    int
	RefreshURL string
	Loading    bool
}

// NewEngine loads the embedded templates with [[ ]] delimiters.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.Delims("[[", "]]")
	engine.AddFunc("abbr", Abbreviate)
	engine.AddFunc("comma", humanize.Comma)
	return engine
}

// Render executes the named template. pretty re-indents the output.
func Render(e *html.Engine, name string, data interface{}, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, name, data); err != nil {
		return nil, err
	}
	if pretty {
		return gohtml.FormatBytes(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// WatchData is the binding of the watch and loading templates.
type WatchData struct {
	Head Head
	Page WatchPage
}

// Watch picks the template for p and its binding. A page that is not ready
// only shows the placeholder and asks the browser to refresh into the same
// view.
func Watch(p WatchPage, refresh int) (string, WatchData) {
	d := WatchData{Page: p, Head: Head{Loading: p.Loading}}
	if !p.Ready {
		d.Head.PageTitle = LoadingText
		d.Head.Refresh = refresh
		if p.ViewID != "" {
			d.Head.RefreshURL = Link(p.Key, p.ViewID)
		}
		return "loading", d
	}
	d.Head.PageTitle = p.Title
	return "watch", d
}

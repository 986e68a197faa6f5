package export

import (
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/broker-catalog/internal/model"
)

var previewTmpl = template.Must(template.New("preview").Funcs(template.FuncMap{
	"inc":    func(i int) int { return i + 1 },
	"lookup": func(email string) bool { return strings.HasPrefix(email, "[LOOKUP") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Email Drafts Preview</title>
<style>
body { font-family: Arial, sans-serif; max-width: 900px; margin: 2em auto; }
.draft { border: 1px solid #ddd; border-radius: 6px; padding: 1em; margin-bottom: 1.5em; }
.meta { color: #666; font-size: 0.9em; }
.lookup { color: #b00; }
pre { white-space: pre-wrap; font-family: inherit; }
</style>
</head>
<body>
<h1>Email Drafts Preview</h1>
<p class="meta">{{len .Drafts}} drafts, generated {{.GeneratedAt}}</p>
{{range $i, $d := .Drafts}}
<div class="draft">
  <h2>{{inc $i}}. {{$d.BrokerName}} ({{$d.BrokerFirm}})</h2>
  <p class="meta">To: <span{{if lookup $d.BrokerEmail}} class="lookup"{{end}}>{{$d.BrokerEmail}}</span> | Tone: {{$d.Tone}}</p>
  <p><strong>Subject:</strong> {{$d.Subject}}</p>
  <pre>{{$d.Body}}</pre>
</div>
{{end}}
</body>
</html>
`))

// WritePreview renders drafts as a single HTML page for review before
// sending. Addresses still awaiting lookup are highlighted.
func WritePreview(path string, drafts []model.EmailDraft, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	data := struct {
		Drafts      []model.EmailDraft
		GeneratedAt string
	}{drafts, now.Format("2006-01-02 15:04")}
	if err := previewTmpl.Execute(f, data); err != nil {
		return eris.Wrapf(err, "export: render %s", path)
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

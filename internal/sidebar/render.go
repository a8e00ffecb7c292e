package sidebar

import (
	"html/template"
	"io"
)

var navTemplate = template.Must(template.New("sidebar").Parse(`<nav aria-label="Main" class="sidebar">
<ul class="sidebar-groups">
{{- range .Groups}}
<li class="sidebar-group">
<details open>
<summary>{{.Label}}</summary>
<ul class="sidebar-links">
{{- range .Links}}
<li><a href="{{.Href}}"{{if .Current}} aria-current="page"{{end}}{{if .Title}} title="{{.Title}}"{{end}}>{{.Label}}</a></li>
{{- end}}
</ul>
</details>
</li>
{{- end}}
</ul>
</nav>
`))

// RenderHTML writes the sidebar as a nav fragment.
func RenderHTML(w io.Writer, s *Sidebar) error {
	return navTemplate.Execute(w, s)
}

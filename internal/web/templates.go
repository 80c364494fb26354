package web

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.View}} | {{.AppTitle}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; display: flex; min-height: 100vh; color: #262730; }
        .sidebar { width: 260px; background: #f0f2f6; padding: 2rem 1.25rem; }
        .sidebar h1 { font-size: 1.25rem; margin-bottom: 1.25rem; }
        .sidebar .label { font-size: 0.8rem; color: #6b7280; margin-bottom: 0.5rem; }
        .sidebar a { display: block; padding: 0.35rem 0.5rem; color: inherit; text-decoration: none; border-radius: 0.375rem; }
        .sidebar a.active { background: #ffffff; font-weight: 600; }
        .main { flex: 1; padding: 2rem 2.5rem; }
        .main h2 { font-size: 1.4rem; margin-bottom: 1rem; }
        .charts { display: grid; gap: 1.25rem; grid-template-columns: repeat({{.Columns}}, 1fr); }
        .chart svg { width: 100%; height: auto; }
        .actions { margin: 1.5rem 0; }
        .actions button { padding: 0.5rem 1rem; border: 1px solid #d1d5db; background: #fff; border-radius: 0.375rem; cursor: pointer; }
        .insights { border-top: 1px solid #e5e7eb; padding-top: 1rem; }
        .insights h3 { margin-bottom: 0.75rem; }
        .insights .text { white-space: pre-wrap; line-height: 1.5; }
        .insights .failed { color: #b91c1c; }
    </style>
</head>
<body>
    <nav class="sidebar">
        <h1>{{.AppTitle}}</h1>
        <div class="label">Select Tab</div>
        {{range .Nav}}<a href="/views/{{.Slug}}"{{if .Active}} class="active"{{end}}>{{.Name}}</a>
        {{end}}
    </nav>
    <main class="main">
        {{if .Heading}}<h2>{{.Heading}}</h2>{{end}}
        <section class="charts">
            {{range .Charts}}<figure class="chart" id="chart-{{.ID}}">{{.SVG}}</figure>
            {{end}}
        </section>
        <form class="actions" method="post" action="/views/{{.Slug}}/insights">
            <button type="submit">Ask AI</button>
        </form>
        {{with .Insight}}<section class="insights">
            <h3>AI Insights</h3>
            <div class="text{{if .Failed}} failed{{end}}">{{.Text}}</div>
        </section>{{end}}
    </main>
</body>
</html>
`))

type navItem struct {
	Name   string
	Slug   string
	Active bool
}

type chartPanel struct {
	ID  string
	SVG template.HTML
}

type insightPanel struct {
	Text   string
	Failed bool
}

type pageData struct {
	AppTitle string
	View     string
	Slug     string
	Heading  string
	Columns  int
	Nav      []navItem
	Charts   []chartPanel
	Insight  *insightPanel
}

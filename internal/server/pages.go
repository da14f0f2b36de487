package server

import (
	"html/template"
	"net/http"
)

// The listener renders plain self-contained pages: the flow's audience is a
// person clicking through a consent screen once, not a frontend.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}} - sundial</title>
  <style>
    body { font-family: -apple-system, sans-serif; max-width: 40rem; margin: 4rem auto; padding: 0 1rem; color: #1a1a1a; }
    h1 { font-size: 1.4rem; }
    code { background: #f0f0f0; padding: 0.2rem 0.4rem; border-radius: 4px; font-size: 1rem; }
    a.button { display: inline-block; background: #1a73e8; color: #fff; padding: 0.6rem 1.2rem; border-radius: 6px; text-decoration: none; }
    ul { line-height: 1.8; }
    .error { color: #c5221f; }
  </style>
</head>
<body>
  <h1{{if .IsError}} class="error"{{end}}>{{.Title}}</h1>
  {{range .Paragraphs}}<p>{{.}}</p>{{end}}
  {{if .UserID}}<p>Your user id: <code>{{.UserID}}</code></p>
  <p>Give this id to your assistant so it can act on your calendar.</p>{{end}}
  {{if .AuthURL}}<p><a class="button" href="{{.AuthURL}}">Connect Google Calendar</a></p>{{end}}
  {{if .Users}}<h1>Authorized users</h1>
  <ul>{{range .Users}}<li><code>{{.}}</code></li>{{end}}</ul>{{end}}
</body>
</html>
`))

type pageData struct {
	Title      string
	IsError    bool
	Paragraphs []string
	UserID     string
	AuthURL    string
	Users      []string
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTemplate.Execute(w, data)
}

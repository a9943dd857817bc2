package server

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
)

// errorPageHTML is the browser-facing login failure page. The message is
// template-escaped because provider error text flows into it.
const errorPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Login Failed - MTG Tagger</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f3f4f6;
        }
        .container {
            text-align: center;
            background: white;
            padding: 2.5rem;
            border-radius: 12px;
            box-shadow: 0 10px 25px rgba(0,0,0,0.1);
            max-width: 480px;
        }
        h1 { color: #1f2937; font-size: 1.5rem; }
        p { color: #6b7280; line-height: 1.5; }
        a { color: #4f46e5; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Login failed</h1>
        <p>{{.Message}}</p>
        <p><a href="/login">Try again</a> or <a href="/">return home</a>.</p>
    </div>
</body>
</html>
`

var errorPageTemplate = template.Must(template.New("error").Parse(errorPageHTML))

// renderErrorPage writes the HTML login failure page with the given status.
func renderErrorPage(ctx context.Context, w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorPageTemplate.Execute(w, struct{ Message string }{Message: message}); err != nil {
		slog.ErrorContext(ctx, "failed to render error page", "error", err)
	}
}

package api

import (
	"io"
	"net/http"
)

// indexHTML is a minimal built-in test page: paste a hosting page URL,
// run an extraction, and play the results through the proxy.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Video Extractor</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; background: #111; color: #eee; }
input, button { font-size: 1rem; padding: .5rem; }
input { width: 70%; background: #222; color: #eee; border: 1px solid #444; }
button { cursor: pointer; background: #2563eb; color: #fff; border: 0; }
pre { background: #1a1a1a; padding: 1rem; overflow-x: auto; }
a { color: #60a5fa; }
video { width: 100%; margin-top: 1rem; }
</style>
</head>
<body>
<h1>Video Extractor</h1>
<p>Extract direct media links from a hosting page and play them through the same-origin proxy.</p>
<form id="f">
<input id="url" placeholder="https://example-host.com/embed/abc123" required>
<button>Extract</button>
</form>
<pre id="out"></pre>
<video id="player" controls></video>
<script>
const f = document.getElementById('f');
const out = document.getElementById('out');
f.addEventListener('submit', async (e) => {
  e.preventDefault();
  out.textContent = 'extracting...';
  const res = await fetch('/api/extract', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({url: document.getElementById('url').value})
  });
  const data = await res.json();
  out.textContent = JSON.stringify(data, null, 2);
});
</script>
</body>
</html>
`

// handleIndex serves the built-in test page.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, indexHTML)
}

package server

import "fmt"

// ReloadPath is the live-reload event stream endpoint.
const ReloadPath = "/sssg-hot-reload"

// reloadScript reconnects after errors and reloads the page on RELOAD.
var reloadScript = fmt.Sprintf(`<script>(() => {
  if (window.__SSSG_LR__) return;
  window.__SSSG_LR__ = true;
  function connect() {
    const es = new EventSource(%q);
    es.onmessage = (e) => { if (e.data === %q) { location.reload(); } };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();</script>`, ReloadPath, ReloadMessage)

const closingBody = "</body>"

// InjectScript inserts the live-reload client before the last </body>, or
// appends it when the document has none.
func InjectScript(html []byte) []byte {
	idx := lastIndexFoldASCII(html, closingBody)
	out := make([]byte, 0, len(html)+len(reloadScript))
	if idx < 0 {
		out = append(out, html...)
		return append(out, reloadScript...)
	}
	out = append(out, html[:idx]...)
	out = append(out, reloadScript...)
	return append(out, html[idx:]...)
}

// lastIndexFoldASCII finds the last occurrence of the lowercase ASCII needle
// in b, ignoring ASCII case only. Offsets refer to b itself whatever its
// encoding.
func lastIndexFoldASCII(b []byte, needle string) int {
	for i := len(b) - len(needle); i >= 0; i-- {
		match := true
		for j := 0; j < len(needle); j++ {
			c := b[i+j]
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

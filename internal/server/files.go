package server

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// resolve maps a request path onto a file below root:
//
//	/p       -> root/p        when it is a file
//	/p/      -> root/p/index.html
//	/p       -> root/p.html   when p has no .html suffix
//
// The path is cleaned first so it can never leave root.
func resolve(root, urlPath string) (string, bool) {
	trailing := strings.HasSuffix(urlPath, "/")
	clean := path.Clean("/" + urlPath)
	target := filepath.Join(root, filepath.FromSlash(clean))

	if trailing {
		if index := filepath.Join(target, "index.html"); isFile(index) {
			return index, true
		}
		return "", false
	}
	if isFile(target) {
		return target, true
	}
	if clean != "/" && !strings.HasSuffix(clean, ".html") {
		if withExt := target + ".html"; isFile(withExt) {
			return withExt, true
		}
	}
	return "", false
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

package bridge

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"

	"github.com/vango-dev/payelements/pkg/bridge/client"
)

var scriptETag = func() string {
	sum := sha256.Sum256(client.BridgeJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:8]))
}()

// ScriptHandler serves the browser shim.
func ScriptHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("ETag", scriptETag)
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")

		if etagMatches(r.Header.Get("If-None-Match"), scriptETag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(client.BridgeJS)
	})
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == etag || candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

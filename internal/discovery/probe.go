package discovery

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed probe.js
var probeSource string

// DefaultBindingName is the page-side function the probe reports through.
const DefaultBindingName = "__liveNewsProbe"

// ProbeScript returns the interceptor script bound to binding. It must be
// installed before page content loads. It wraps fetch and XMLHttpRequest.open
// without changing their behavior and posts every http(s) .m3u8 URL it sees.
// It does nothing when the binding is missing.
func ProbeScript(binding string) string {
	if binding == "" {
		binding = DefaultBindingName
	}
	quoted, _ := json.Marshal(binding)
	return strings.Replace(probeSource, "__BINDING__", string(quoted), 1)
}

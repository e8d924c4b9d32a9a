// Package version holds the runtime's own version string, settable at
// build time via -ldflags, the way the teacher's own internal/version
// package is populated.
package version

// Version is overridden at build time with:
//
//	go build -ldflags "-X github.com/asterai-io/asterai-sub000/internal/version.Version=1.2.3"
var Version = "dev"

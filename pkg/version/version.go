// Package version exposes build identity for logs and the health endpoint.
package version

import "runtime/debug"

// AppName prefixes version strings and user agents.
const AppName = "relay"

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/agentwire/relay/pkg/version.Version=v1.2.3".
var Version = "dev"

// GitCommit is the short commit hash from embedded VCS info, with a "-dirty"
// suffix when the tree had local modifications. "unknown" outside a checkout.
var GitCommit = resolveCommit()

func resolveCommit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

// Full returns "relay/<version> (<commit>)".
func Full() string {
	return AppName + "/" + Version + " (" + GitCommit + ")"
}

package version

import "runtime/debug"

// Version is set at build time with -ldflags "-X spatialbench/internal/version.Version=...".
var Version = ""

func Current() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Package version provides application version information.
// The version can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/Naokyoo/Riftbound-manager/internal/version.Version=v1.2.3"
package version

import "runtime/debug"

// Version is the application version. It defaults to "dev" and can be
// overridden at build time using ldflags.
var Version = "dev"

// GetVersion returns the current application version. A "dev" build reports
// the module version recorded by the toolchain when there is one.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// UserAgent returns the User-Agent sent to the persistence service.
func UserAgent() string {
	return "riftbound-manager/" + GetVersion()
}

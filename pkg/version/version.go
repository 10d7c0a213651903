// Package version holds the build version, set with
// -ldflags "-X github.com/maxvaer/gobauto/pkg/version.Version=1.2.3".
package version

// Version is the gobauto release version.
var Version = "dev"

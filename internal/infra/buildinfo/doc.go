// Package buildinfo reports the version, commit and build time of the
// minikv binaries for --version output and the startup log line.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/minikv/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not, the module version and VCS stamp recorded by the Go
// toolchain are used instead.
package buildinfo

// Package version reports the build identity of the boundq binary.
//
// Values are stamped at link time and fall back to the module's VCS build
// settings:
//
//	go build -ldflags "-X github.com/kbukum/boundq/version.Version=1.2.0" ./cmd/boundq
package version

// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/linepipe/version.Version=1.0.0" ./cmd/linepipe
package version

package version

// Version is overridable at build time:
//
//	go build -ldflags "-X solnav/internal/shared/version.Version=v1.2.3"
var Version = "1.0.0"

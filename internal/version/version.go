// ABOUTME: Build and product identification
// ABOUTME: Version is overridden at link time with -ldflags
package version

import "fmt"

// Version is the release version, set with -ldflags "-X .../version.Version=..."
var Version = "0.1.0"

const (
	Product      = "lanes"
	Manufacturer = "harperreed"
)

// String returns the product and version for banners and handshakes
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}

package version

import "fmt"

const (
	Major = 0
	Minor = 2
	Patch = 0
)

// AppVersion is the semantic version of the thermoview binary.
func AppVersion() string {
	return fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}

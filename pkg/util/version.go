package util

import (
	"fmt"
)

// set by -ldflags at build time
var (
	Version   = ""
	GitCommit = ""
	BuildTime = ""
	GoVersion = ""
)

// PrintVersion prints the version info, returns false if there is no version info
func PrintVersion() bool {
	if Version == "" && GitCommit == "" {
		fmt.Println("No version info")
		return false
	}

	fmt.Println("Version   : ", Version)
	fmt.Println("GitCommit : ", GitCommit)
	fmt.Println("BuildTime : ", BuildTime)
	fmt.Println("GoVersion : ", GoVersion)
	return true
}

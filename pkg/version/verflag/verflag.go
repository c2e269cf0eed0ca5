package verflag

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"voltampero/pkg/version"
)

var versionFlag *bool

func AddFlags(fs *pflag.FlagSet) {
	versionFlag = fs.Bool("version", false, "Print version information and quit")
}

// PrintAndExitIfRequested checks if the --version flag was passed and,
// if so, prints the version and exits.
func PrintAndExitIfRequested() {
	if versionFlag != nil && *versionFlag {
		fmt.Printf("voltampero %s\n", version.Get())
		os.Exit(0)
	}
}

// Command upx is the UnityPay operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.RootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

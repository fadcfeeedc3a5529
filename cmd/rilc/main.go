package main

import (
	"fmt"
	"os"

	cmd "github.com/ril-lang/rilc/cmd/rilc/cmdpkg"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

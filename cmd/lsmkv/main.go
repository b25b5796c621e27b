// Command lsmkv is a minimal smoke-test entrypoint for the storage
// engine; command-line drivers proper are out of scope (spec.md §1).
package main

import (
	"fmt"
	"os"

	"github.com/oss-lsm/lsmkv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: lsmkv <data-dir>")
		os.Exit(1)
	}

	e, err := lsmkv.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer e.Stop()

	fmt.Println("lsmkv: data directory opened at", os.Args[1])
}

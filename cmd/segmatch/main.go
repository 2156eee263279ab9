package main

import (
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/trf/internal/cli"
)

func main() {
	if err := cli.New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "trf: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/0xcro3dile/ragchat/internal/cli"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", apperr.Kind(err), err)
		os.Exit(1)
	}
}

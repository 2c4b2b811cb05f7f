package main

import (
	"os"

	cakecmder "github.com/papercomputeco/cake/cmd/cake"
)

func main() {
	cmd := cakecmder.NewCakeCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

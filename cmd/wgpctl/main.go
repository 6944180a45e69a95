package main

import (
	"log"
	"os"

	"github.com/wgpctl/wgpctl/internal/cli"
	"github.com/wgpctl/wgpctl/internal/runner"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("wgpctl: ")
	if err := cli.Execute(); err != nil {
		// WGP's own exit status wins over the generic failure code.
		if code, ok := runner.ExitCode(err); ok && code > 0 {
			log.Print(err)
			os.Exit(code)
		}
		log.Fatal(err)
	}
}

package main

import (
	"os"

	"github.com/Ning0612/cloudsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

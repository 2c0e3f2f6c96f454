package main

import (
	"github.com/jvmcov/jvmcov/internal/cli"
	"github.com/jvmcov/jvmcov/pkg/maxprocs"
)

func main() {
	maxprocs.Adjust()
	cli.Execute()
}

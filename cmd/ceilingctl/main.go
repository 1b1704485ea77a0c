package main

import (
	"github.com/robotalks/ceiling.go/pkg/ceiling"
	"github.com/robotalks/ceiling.go/pkg/cli/sh"

	_ "github.com/robotalks/ceiling.go/pkg/cli/cmds/motion"
)

func init() {
	ceiling.SetupFlags()
}

func main() {
	sh.Main()
}

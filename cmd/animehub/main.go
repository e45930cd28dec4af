package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"animehub/cmd/animehub/command"
)

const version = "0.1.0"

func main() {
	root, closeApp := command.NewRootCmd()

	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	)
	closeApp()
	if err != nil {
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

// Options is the root command; go-flags dispatches to Serve or Chat.
type Options struct {
	Config  string   `short:"c" long:"config" description:"YAML/JSON config path" env:"FORMCHAT_CONFIG"`
	NoColor bool     `long:"no-color" description:"disable colored log output"`
	Serve   ServeCmd `command:"serve" description:"Start the HTTP API"`
	Chat    ChatCmd  `command:"chat" description:"Chat in the terminal and answer field requests interactively"`
}

var options Options

func main() {
	parser := flags.NewParser(&options, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

package main

import "strings"

type replCommand string

const (
	commandNone    replCommand = "none"
	commandQuit    replCommand = "quit"
	commandAnswers replCommand = "answers"
	commandReset   replCommand = "reset"
	commandForget  replCommand = "forget"
)

// commandParser matches a leading keyword; anything else is a chat message.
type commandParser struct {
	keywords map[replCommand][]string
	// takesArg marks commands followed by free text.
	takesArg map[replCommand]bool
}

func newCommandParser() *commandParser {
	return &commandParser{
		keywords: map[replCommand][]string{
			commandQuit:    {"/quit", "/exit", "/q"},
			commandAnswers: {"/answers", "/a"},
			commandReset:   {"/reset", "/new"},
			commandForget:  {"/forget"},
		},
		takesArg: map[replCommand]bool{commandForget: true},
	}
}

// parse returns the command of line and its argument, if any.
func (p *commandParser) parse(line string) (replCommand, string) {
	trimmed := strings.TrimSpace(line)
	head, arg, _ := strings.Cut(trimmed, " ")
	head = strings.ToLower(head)
	arg = strings.TrimSpace(arg)
	for cmd, keywords := range p.keywords {
		for _, keyword := range keywords {
			if head != keyword {
				continue
			}
			if p.takesArg[cmd] != (arg != "") {
				return commandNone, ""
			}
			return cmd, arg
		}
	}
	return commandNone, ""
}

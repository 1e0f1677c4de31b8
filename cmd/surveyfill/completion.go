package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/miekg/king"
)

const name = "surveyfill"

type ShellType string

const (
	BASH ShellType = "bash"
	ZSH  ShellType = "zsh"
	FISH ShellType = "fish"
)

var shellTypes = []string{string(BASH), string(ZSH), string(FISH)}

type CompletionCmd struct {
	Shell ShellType `short:"s" help:"The shell to create the autocompletion file for." required:"" enum:"bash,zsh,fish"`
}

func (cc *CompletionCmd) Run() error {
	parser, err := kong.New(&cli{}, kong.Name(name))
	if err != nil {
		return err
	}

	switch cc.Shell {
	case BASH:
		b := &king.Bash{}
		b.Completion(parser.Model.Node, name)
		return b.Write()
	case ZSH:
		z := &king.Zsh{}
		z.Completion(parser.Model.Node, name)
		return z.Write()
	case FISH:
		f := &king.Fish{}
		f.Completion(parser.Model.Node, name)
		return f.Write()
	}
	return fmt.Errorf("shell type not supported: %s, must be one of [%s]", cc.Shell, strings.Join(shellTypes, ", "))
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/tbxark/formchat/agent"
	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/internal/app"
)

type ChatCmd struct {
	Session string `short:"s" long:"session" description:"session id to continue; a new one is generated when empty"`
}

func (c *ChatCmd) Execute(_ []string) error {
	cfg, _, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	ctx := context.Background()
	cm, err := app.NewChatModel(ctx, cfg)
	if err != nil {
		return err
	}
	cs, closeStore, err := app.NewCheckpointStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = closeStore() }()
	runner, err := app.NewRunner(ctx, cfg, cm, cs)
	if err != nil {
		return fmt.Errorf("new runner: %w", err)
	}

	sessionID := c.Session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ctx = agent.WithSessionID(ctx, sessionID)
	r := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent.NewAgent("FormChat", "Collects information from the user through field requests", runner),
	})

	fmt.Printf("Session %s. Type a message, /answers to show what was collected, /forget <question> to drop an answer, /reset to start over, /quit to exit.\n", sessionID)
	commands := newCommandParser()
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("You: ")
		line, rErr := reader.ReadString('\n')
		if rErr != nil {
			if errors.Is(rErr, io.EOF) {
				return nil
			}
			return rErr
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, arg := commands.parse(line)
		switch cmd {
		case commandQuit:
			return nil
		case commandAnswers:
			printAnswers(ctx, runner, sessionID)
			continue
		case commandReset:
			if err := runner.Store().Delete(ctx, sessionID); err != nil {
				fmt.Printf("error: %v\n", err)
			}
			fmt.Println("Session cleared.")
			continue
		case commandForget:
			if _, err := runner.Forget(ctx, sessionID, arg); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("Forgot %q.\n", arg)
			continue
		}
		if err := converse(ctx, r, line); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

// converse sends one message and keeps answering field requests until the
// turn ends without one.
func converse(ctx context.Context, r *adk.Runner, text string) error {
	req, err := runTurn(ctx, r, []adk.Message{schema.UserMessage(text)})
	for err == nil && req != nil {
		var payload any
		payload, err = ask(req)
		if err != nil {
			return err
		}
		req, err = runTurn(agent.WithResumePayload(ctx, payload), r, nil)
	}
	return err
}

func runTurn(ctx context.Context, r *adk.Runner, messages []adk.Message) (*field.Request, error) {
	iter := r.Run(ctx, messages)
	var pending *field.Request
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			return nil, event.Err
		}
		if event.Action != nil && event.Action.Interrupted != nil {
			if req, ok := event.Action.Interrupted.Data.(*field.Request); ok {
				pending = req
				continue
			}
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return nil, err
		}
		fmt.Printf("\nAssistant: %s\n======\n", msg.Content)
	}
	return pending, nil
}

// ask prompts for the pending request until the answer parses.
func ask(req *field.Request) (any, error) {
	if req.Type != field.RequestTypeField || req.Field == nil {
		var out string
		err := survey.AskOne(&survey.Input{Message: req.Prompt}, &out, survey.WithValidator(survey.Required))
		return out, err
	}
	f := req.Field
	envelope := func(key string, value any) map[string]any {
		return map[string]any{"id": f.FieldID(), "type": string(f.FieldType()), key: value}
	}
	validate := func(key string) survey.Validator {
		return func(ans any) error {
			_, err := field.Parse(f, envelope(key, ans))
			return err
		}
	}

	switch v := f.(type) {
	case *field.CheckboxField:
		var out []string
		prompt := &survey.MultiSelect{Message: v.Description, Options: v.Options}
		if err := survey.AskOne(prompt, &out); err != nil {
			return nil, err
		}
		return envelope("values", out), nil
	case *field.RadioField:
		var out string
		prompt := &survey.Select{Message: v.Description, Options: v.Options}
		if err := survey.AskOne(prompt, &out); err != nil {
			return nil, err
		}
		return envelope("value", out), nil
	case *field.DateField:
		var out string
		prompt := &survey.Input{
			Message: v.Description,
			Help:    "YYYY-MM-DD",
			Default: time.Now().Format(time.DateOnly),
		}
		if err := survey.AskOne(prompt, &out, survey.WithValidator(validate("value"))); err != nil {
			return nil, err
		}
		return envelope("value", out), nil
	case *field.TextField:
		var out string
		prompt := &survey.Input{Message: v.Description, Help: v.Placeholder}
		if err := survey.AskOne(prompt, &out, survey.WithValidator(validate("value"))); err != nil {
			return nil, err
		}
		return envelope("value", out), nil
	default:
		var out string
		prompt := &survey.Input{Message: f.FieldDescription()}
		if err := survey.AskOne(prompt, &out, survey.WithValidator(validate("value"))); err != nil {
			return nil, err
		}
		return envelope("value", out), nil
	}
}

func printAnswers(ctx context.Context, runner *agent.Runner, sessionID string) {
	cp, err := runner.State(ctx, sessionID)
	if err != nil {
		fmt.Println("Nothing collected yet.")
		return
	}
	md := cp.Answers.Markdown()
	if md == "" {
		fmt.Println("Nothing collected yet.")
		return
	}
	fmt.Println(md)
}

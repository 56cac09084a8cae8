// Package tools exposes the field request protocol to the model as eino tools.
//
// Every tool builds a field request from its arguments, suspends the agent
// loop with it and, once resumed, parses the human's response into a typed
// answer that is reported back to the model as a short result string.
package tools

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/interrupt"
)

const (
	AskTextName     = "ask_text"
	AskNumberName   = "ask_number"
	AskDateName     = "ask_date"
	AskCheckboxName = "ask_checkbox"
	AskRadioName    = "ask_radio"
)

type askTextArgs struct {
	Question    string `json:"question" jsonschema:"required,description=Question shown to the user"`
	Placeholder string `json:"placeholder,omitempty" jsonschema:"description=Example value shown in the empty input"`
	MaxLength   int    `json:"max_length,omitempty" jsonschema:"description=Maximum number of characters; defaults to 255"`
}

type askQuestionArgs struct {
	Question string `json:"question" jsonschema:"required,description=Question shown to the user"`
}

type askChoiceArgs struct {
	Question string   `json:"question" jsonschema:"required,description=Question shown to the user"`
	Options  []string `json:"options" jsonschema:"required,minItems=1,description=Option labels in display order"`
}

// AskTool is an invokable tool that asks the user for one typed field.
type AskTool[TArgs any] struct {
	info  *schema.ToolInfo
	build func(args *TArgs) (*field.Request, error)
}

func newAskTool[TArgs any](name, desc string, build func(args *TArgs) (*field.Request, error)) (*AskTool[TArgs], error) {
	info, err := utils.GoStruct2ToolInfo[TArgs](name, desc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &AskTool[TArgs]{info: info, build: build}, nil
}

func (t *AskTool[TArgs]) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

// InvokableRun suspends on first invocation. When re-invoked with a resume
// value it parses the value and returns the formatted answer.
func (t *AskTool[TArgs]) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args TArgs
	if argumentsInJSON != "" {
		if err := sonic.UnmarshalString(argumentsInJSON, &args); err != nil {
			return "", fmt.Errorf("parse %s arguments failed: %w", t.info.Name, err)
		}
	}
	req, err := t.build(&args)
	if err != nil {
		return "", err
	}
	payload, err := interrupt.Suspend(ctx, req)
	if err != nil {
		return "", err
	}
	if orig, ok := interrupt.ResumedInfo(ctx).(*field.Request); ok && sameKind(orig, req) {
		req = orig
	}
	answer, err := field.Parse(req.Field, payload)
	if err != nil {
		return "", err
	}
	if err := record(ctx, answer); err != nil {
		return "", fmt.Errorf("record answer failed: %w", err)
	}
	return FormatAnswer(answer), nil
}

func sameKind(a, b *field.Request) bool {
	return a.Field != nil && b.Field != nil && a.Field.FieldType() == b.Field.FieldType()
}

func NewAskText() (*AskTool[askTextArgs], error) {
	return newAskTool(AskTextName, "Ask the user for a piece of free text such as a name or an address.",
		func(args *askTextArgs) (*field.Request, error) {
			var opts []field.TextOption
			if args.Placeholder != "" {
				opts = append(opts, field.WithPlaceholder(args.Placeholder))
			}
			if args.MaxLength != 0 {
				opts = append(opts, field.WithMaxLength(args.MaxLength))
			}
			return field.RequestText(args.Question, opts...)
		})
}

func NewAskNumber() (*AskTool[askQuestionArgs], error) {
	return newAskTool(AskNumberName, "Ask the user for any number with a given question.",
		func(args *askQuestionArgs) (*field.Request, error) {
			return field.RequestNumber(args.Question), nil
		})
}

func NewAskDate() (*AskTool[askQuestionArgs], error) {
	return newAskTool(AskDateName, "Ask the user for a calendar date.",
		func(args *askQuestionArgs) (*field.Request, error) {
			return field.RequestDate(args.Question), nil
		})
}

func NewAskCheckbox() (*AskTool[askChoiceArgs], error) {
	return newAskTool(AskCheckboxName, "Ask the user to pick any number of options from a list, including none.",
		func(args *askChoiceArgs) (*field.Request, error) {
			return field.RequestCheckbox(args.Question, args.Options)
		})
}

func NewAskRadio() (*AskTool[askChoiceArgs], error) {
	return newAskTool(AskRadioName, "Ask the user to pick exactly one option from a list.",
		func(args *askChoiceArgs) (*field.Request, error) {
			return field.RequestRadio(args.Question, args.Options)
		})
}

// New returns the full tool set in a stable order.
func New() ([]tool.InvokableTool, error) {
	text, err := NewAskText()
	if err != nil {
		return nil, err
	}
	number, err := NewAskNumber()
	if err != nil {
		return nil, err
	}
	date, err := NewAskDate()
	if err != nil {
		return nil, err
	}
	checkbox, err := NewAskCheckbox()
	if err != nil {
		return nil, err
	}
	radio, err := NewAskRadio()
	if err != nil {
		return nil, err
	}
	return []tool.InvokableTool{text, number, date, checkbox, radio}, nil
}

// Infos collects the tool schemas to bind to a chat model.
func Infos(ctx context.Context, ts []tool.InvokableTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

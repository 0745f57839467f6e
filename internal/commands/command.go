package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeNew      Type = "new"
	TypeComplete Type = "complete"
	TypeEdit     Type = "edit"
	TypeRename   Type = "rename"
	TypeInspect  Type = "inspect"
	TypeDelete   Type = "delete"
	TypeDrop     Type = "drop"
	TypeReplace  Type = "replace"
	TypeSort     Type = "sort"
	TypeSettings Type = "settings"
	TypePage     Type = "page"
	TypeQuit     Type = "quit"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type NewArgs struct {
	Spec string
}

// TargetArgs names a tracker by its tag on the current page. Text is the
// optional inline value; when empty the caller opens a dialog instead.
type TargetArgs struct {
	Tag  rune
	Text string
}

// HistoryArgs addresses one history entry, one-based as displayed.
type HistoryArgs struct {
	Tag   rune
	Index int
	Text  string
}

type SortArgs struct {
	Field string
}

type PageArgs struct {
	Page int
}

type Command struct {
	Type    Type
	Raw     string
	New     *NewArgs
	Target  *TargetArgs
	History *HistoryArgs
	Sort    *SortArgs
	Page    *PageArgs
}

var aliases = map[string]Type{
	"n":  TypeNew,
	"c":  TypeComplete,
	"e":  TypeEdit,
	"r":  TypeRename,
	"i":  TypeInspect,
	"d":  TypeDelete,
	"s":  TypeSort,
	"q":  TypeQuit,
	"rm": TypeDelete,
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, ":") || strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	typ := Type(head)
	if alias, ok := aliases[head]; ok {
		typ = alias
	}

	switch typ {
	case TypeNew:
		return parseNew(input, args)
	case TypeComplete, TypeEdit, TypeRename, TypeInspect, TypeDelete:
		return parseTarget(input, typ, args)
	case TypeDrop, TypeReplace:
		return parseHistory(input, typ, args)
	case TypeSort:
		if len(args) != 1 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "sort requires one of forecast, latest, name, id"}
		}
		return Command{Type: TypeSort, Raw: input, Sort: &SortArgs{Field: strings.ToLower(args[0])}}, nil
	case TypePage:
		return parsePage(input, args)
	case TypeSettings, TypeQuit:
		if len(args) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes no arguments", typ)}
		}
		return Command{Type: typ, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseNew(raw string, args []string) (Command, error) {
	spec := strings.TrimSpace(strings.Join(args, " "))
	if spec == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "new requires a name"}
	}
	return Command{Type: TypeNew, Raw: raw, New: &NewArgs{Spec: spec}}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a tag", typ)}
	}
	tag, err := parseTag(args[0])
	if err != nil {
		return Command{}, err
	}
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text != "" && (typ == TypeInspect || typ == TypeDelete) {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes only a tag", typ)}
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{Tag: tag, Text: text}}, nil
}

func parseHistory(raw string, typ Type, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a tag and an entry number", typ)}
	}
	tag, err := parseTag(args[0])
	if err != nil {
		return Command{}, err
	}
	index, convErr := strconv.Atoi(args[1])
	if convErr != nil || index < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid entry number: %s", args[1])}
	}
	text := strings.TrimSpace(strings.Join(args[2:], " "))
	if typ == TypeReplace && text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "replace requires a completion"}
	}
	if typ == TypeDrop && text != "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "drop takes a tag and an entry number"}
	}
	return Command{Type: typ, Raw: raw, History: &HistoryArgs{Tag: tag, Index: index, Text: text}}, nil
}

func parsePage(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "page requires a number"}
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid page: %s", args[0])}
	}
	return Command{Type: TypePage, Raw: raw, Page: &PageArgs{Page: page}}, nil
}

func parseTag(s string) (rune, error) {
	s = strings.ToLower(s)
	if len(s) != 1 || s[0] < 'a' || s[0] > 'z' {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid tag: %s", s)}
	}
	return rune(s[0]), nil
}

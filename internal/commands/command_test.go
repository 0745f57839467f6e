package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{":new water plants, now, 3d", TypeNew},
		{"complete a now, -10m", TypeComplete},
		{"c b", TypeComplete},
		{"edit c", TypeEdit},
		{"rename a feed the cat", TypeRename},
		{"inspect z", TypeInspect},
		{"rm a", TypeDelete},
		{"drop a 2", TypeDrop},
		{"replace a 1 2026-01-02 09:00", TypeReplace},
		{"sort latest", TypeSort},
		{"settings", TypeSettings},
		{"page 2", TypePage},
		{"q", TypeQuit},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseKeepsInlineText(t *testing.T) {
	cmd, err := Parse("complete B 2026-01-02 09:00, +5m")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Target.Tag != 'b' || cmd.Target.Text != "2026-01-02 09:00, +5m" {
		t.Fatalf("unexpected target args: %+v", cmd.Target)
	}

	cmd, err = Parse("replace c 3 now")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.History.Tag != 'c' || cmd.History.Index != 3 || cmd.History.Text != "now" {
		t.Fatalf("unexpected history args: %+v", cmd.History)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{"complete", "complete 7", "drop a zero", "drop a 0", "replace a 1", "page x", "sort", "settings now", "delete a now"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	_, err = Parse(":  ")
	if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("new write docs, now")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		New: func(a NewArgs) (Result, error) {
			called = true
			if a.Spec != "write docs, now" {
				t.Fatalf("unexpected spec: %q", a.Spec)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}

	quit, _ := Parse("quit")
	res, err = Execute(quit, Handlers{})
	if err != nil || !res.Quit {
		t.Fatalf("expected quit result, got %+v %v", res, err)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("inspect a")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

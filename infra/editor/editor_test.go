package editor

import (
	"os"
	"strings"
	"testing"
)

func TestCmd_UsesEditorAndWritesTemplate(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano -w")
	e := NewEnvEditor()

	cmd, path, err := e.Cmd("hello", "@alice")
	if err != nil {
		t.Fatalf("cmd failed: %v", err)
	}
	t.Cleanup(func() { os.Remove(path) })
	if len(cmd.Args) != 3 || cmd.Args[0] != "nano" || cmd.Args[1] != "-w" || cmd.Args[2] != path {
		t.Fatalf("unexpected args: %v", cmd.Args)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read temp file failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Replying to @alice") || !strings.HasSuffix(text, "hello") {
		t.Fatalf("unexpected template content: %q", text)
	}
}

func TestCmd_PrefersVisual(t *testing.T) {
	t.Setenv("VISUAL", "code")
	t.Setenv("EDITOR", "vi")
	cmd, path, err := NewEnvEditor().Cmd("", "")
	if err != nil {
		t.Fatalf("cmd failed: %v", err)
	}
	t.Cleanup(func() { os.Remove(path) })
	if cmd.Args[0] != "code" {
		t.Fatalf("expected $VISUAL, got %v", cmd.Args)
	}
}

func TestReadContent_StripsInstructionAndDeletesFile(t *testing.T) {
	e := NewEnvEditor()
	f, err := os.CreateTemp("", "groupchat-test-*.md")
	if err != nil {
		t.Fatalf("create temp failed: %v", err)
	}
	path := f.Name()
	_, _ = f.WriteString(instructionComment + "\nline1\nline2\n")
	_ = f.Close()

	content, err := e.ReadContent(path)
	if err != nil {
		t.Fatalf("read content failed: %v", err)
	}
	if content != "line1\nline2" {
		t.Fatalf("unexpected content: %q", content)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be deleted")
	}
}

func TestReadContent_KeepsArrowsInBody(t *testing.T) {
	f, err := os.CreateTemp("", "groupchat-test-*.md")
	if err != nil {
		t.Fatalf("create temp failed: %v", err)
	}
	path := f.Name()
	_, _ = f.WriteString("a --> b")
	_ = f.Close()

	content, err := NewEnvEditor().ReadContent(path)
	if err != nil || content != "a --> b" {
		t.Fatalf("got %q %v", content, err)
	}
}

package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EnvEditor prepares an external editor command for composing long chat
// messages using $VISUAL or $EDITOR (fallback: "vi"). It does not run the
// editor; callers hand the returned *exec.Cmd to tea.ExecProcess so Bubble
// Tea releases the terminal.
type EnvEditor struct{}

// NewEnvEditor creates an EnvEditor.
func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

const instructionComment = `<!--
Write your chat message below. Markdown is supported.

- SAVE and EXIT to load the text into the message box.
- An empty file cancels.
-->

`

// Cmd writes a temp file holding draft (and, when replying, the mention
// being answered) and returns the editor command for it.
func (e *EnvEditor) Cmd(draft, replyTo string) (*exec.Cmd, string, error) {
	editorCmd := os.Getenv("VISUAL")
	if editorCmd == "" {
		editorCmd = os.Getenv("EDITOR")
	}
	if editorCmd == "" {
		editorCmd = "vi"
	}
	fields := strings.Fields(editorCmd)
	if len(fields) == 0 {
		fields = []string{"vi"}
	}

	tmpFile, err := os.CreateTemp("", "groupchat-*.md")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	header := instructionComment
	if replyTo != "" {
		header = strings.Replace(instructionComment, "-->", "Replying to "+replyTo+"\n-->", 1)
	}
	if _, err := tmpFile.WriteString(header + draft); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	args := append(fields[1:], tmpPath)
	return exec.Command(fields[0], args...), tmpPath, nil
}

// ReadContent reads the temp file, strips the instruction comment, trims
// whitespace and removes the file.
func (e *EnvEditor) ReadContent(path string) (string, error) {
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}

	content := string(data)
	if strings.HasPrefix(strings.TrimSpace(content), "<!--") {
		if idx := strings.Index(content, "-->"); idx != -1 {
			content = content[idx+3:]
		}
	}
	return strings.TrimSpace(content), nil
}

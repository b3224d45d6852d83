package nodebrain

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os/exec"
	"time"
)

// OSCommandSink executes a rule's command string as a shell command,
// the engine's default external collaborator when rule files drive real
// system actions rather than only asserting cell values. It wraps one
// external integration behind the Sink interface, the same shape
// HTTPCommandSink uses below for outbound HTTP callbacks.
type OSCommandSink struct {
	// Shell is the interpreter invoked with "-c <command>". Defaults to
	// "/bin/sh" when empty.
	Shell string
	// Timeout bounds how long a single command may run before it is
	// killed. Zero means no timeout.
	Timeout time.Duration
}

// Exec implements CommandSink.
func (s *OSCommandSink) Exec(ctx *Term, command string) error {
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	runCtx := context.Background()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, shell, "-c", command)
	return cmd.Run()
}

// HTTPCommandSink posts a rule's command string to an HTTP endpoint
// instead of executing it locally. It is useful when NodeBrain's
// command text names a remote action (e.g. a webhook identifier) rather
// than a local shell command.
type HTTPCommandSink struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

type httpCommandPayload struct {
	Context string `json:"context"`
	Command string `json:"command"`
}

// Exec implements CommandSink.
func (s *HTTPCommandSink) Exec(ctx *Term, command string) error {
	client := s.Client
	if client == nil {
		timeout := s.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	path := ""
	if ctx != nil {
		path = ctx.Path()
	}
	body, err := json.Marshal(httpCommandPayload{Context: path, Command: command})
	if err != nil {
		return err
	}
	resp, err := client.Post(s.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

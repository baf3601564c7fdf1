package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Identifies a command or response kind on the daemon socket.
type Command string

const (
	CmdBuild    Command = "build"    // Execute a provisioning recipe.
	CmdVerify   Command = "verify"   // Check a built image against its recipe.
	CmdStatus   Command = "status"   // Query daemon status.
	CmdShutdown Command = "shutdown" // Ask the daemon to stop.

	CmdOK    Command = "ok"    // Successful response.
	CmdError Command = "error" // Error response.
)

var ErrProtocol = errors.New("protocol error")

// Wire framing for a single message: one envelope per line, JSON-encoded.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Asks the daemon to execute a recipe.
type BuildRequest struct {
	RecipePath string   `json:"recipe_path"`         // Path to the recipe YAML on the daemon host.
	Root       string   `json:"root"`                // Build context root.
	Resource   string   `json:"resource"`            // Resource name for container ID scoping.
	Output     string   `json:"output"`              // Directory for the exported image.
	Platforms  []string `json:"platforms,omitempty"` // Target platforms. Empty means host.
}

// Returned after a successful build.
type BuildResult struct {
	Output string `json:"output"` // Directory containing the exported image.
}

// Asks the daemon to verify a built image against its recipe.
type VerifyRequest struct {
	RecipePath string `json:"recipe_path"` // Path to the recipe YAML on the daemon host.
	Root       string `json:"root"`        // Build context root, for byte-identity checks.
	Archive    string `json:"archive"`     // Path to the exported OCI archive.
	Resource   string `json:"resource"`    // Resource name for container ID scoping.
}

// Returned after verification ran to completion.
type VerifyResult struct {
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures,omitempty"` // Descriptions of failed checks.
}

// Returned in response to a status command.
type StatusResult struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
	Pid     int    `json:"pid"`
	Uptime  string `json:"uptime"`
	Builds  int    `json:"builds"` // Build commands processed since start.
}

// Returned when a command fails.
type ErrorResult struct {
	Message string `json:"message"`
}

// Serializes a command and payload into a wire envelope.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return data, nil
}

// Parses a wire envelope, returning the command and its raw payload.
func Decode(data []byte) (Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if env.Command == "" {
		return Envelope{}, nil, fmt.Errorf("%w: missing command", ErrProtocol)
	}
	return env, env.Payload, nil
}

// Parses a raw payload into a typed request or result.
func DecodePayload[T any](raw json.RawMessage) (*T, error) {
	var v T
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrProtocol)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return &v, nil
}

package protocol

import (
	"errors"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(CmdBuild, &BuildRequest{
		RecipePath: "recipe.yaml",
		Root:       "/srv/ctx",
		Resource:   "feature-runtime",
		Output:     "dist",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env, payload, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Command != CmdBuild {
		t.Fatalf("command = %q, want %q", env.Command, CmdBuild)
	}

	req, err := DecodePayload[BuildRequest](payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.RecipePath != "recipe.yaml" || req.Resource != "feature-runtime" {
		t.Fatalf("request = %+v", req)
	}
}

func TestEncodeNilPayload(t *testing.T) {
	data, err := Encode(CmdShutdown, nil)
	if err != nil {
		t.Fatal(err)
	}

	env, payload, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.Command != CmdShutdown {
		t.Fatalf("command = %q, want %q", env.Command, CmdShutdown)
	}
	if len(payload) != 0 {
		t.Fatalf("payload = %q, want empty", payload)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid json", input: "{not json"},
		{name: "missing command", input: `{"payload":{}}`},
		{name: "empty object", input: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.input))
			if !errors.Is(err, ErrProtocol) {
				t.Fatalf("err = %v, want ErrProtocol", err)
			}
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	if _, err := DecodePayload[BuildRequest](nil); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol for missing payload", err)
	}
	if _, err := DecodePayload[BuildRequest]([]byte("[1,2]")); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol for mismatched payload", err)
	}
}

package decoder_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"replaykit/internal/config"
	"replaykit/internal/decoder"
	"replaykit/internal/recfile"
	"replaykit/internal/replay"
	"replaykit/internal/services"
	"replaykit/internal/testsupport"
)

const okDocument = `{"players":[` +
	`{"username":"Alice","operator":{"name":"Ash","id":92270642656}},` +
	`{"username":"Bob","operator":{"name":"Thermite"}}]}`

func sampleReplay(t *testing.T) []byte {
	t.Helper()
	return testsupport.NewReplay().
		Player(testsupport.PlayerPacket{Operator: replay.Ash, DissectID: [4]byte{1, 0, 0, 1}, Spawn: "Main Entrance", Username: "Alice"}).
		Bytes(t)
}

func TestNewSelectsByMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dec, err := decoder.New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dec.Name() != "native" {
		t.Fatalf("expected native decoder, got %s", dec.Name())
	}

	cfg.Decoder.Mode = config.DecoderModeExternal
	cfg.Decoder.Binary = "dissect-cli"
	dec, err = decoder.New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dec.Name() != "external:dissect-cli" {
		t.Fatalf("expected external decoder, got %s", dec.Name())
	}

	cfg.Decoder.Mode = "remote"
	if _, err := decoder.New(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNativeDecode(t *testing.T) {
	dec := decoder.NewNative(nil)
	r, err := dec.Decode(context.Background(), sampleReplay(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(r.Players) != 1 || r.Players[0].Operator != replay.Ash {
		t.Fatalf("unexpected players %+v", r.Players)
	}

	if _, err := dec.Decode(context.Background(), []byte("junk")); !errors.Is(err, recfile.ErrMalformedContainer) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if services.Kind(errOf(dec.Decode(context.Background(), []byte("dis")))) != "truncated" {
		t.Fatal("expected truncated kind for short input")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dec.Decode(ctx, sampleReplay(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func errOf(_ *replay.Replay, err error) error { return err }

func externalDecoder(t *testing.T, script string) decoder.Decoder {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubDecoder("fake-dissect", script))
	dec, err := decoder.New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return dec
}

func TestExternalDecodeParsesPlayers(t *testing.T) {
	dec := externalDecoder(t, "cat > /dev/null\nprintf '%s' '"+okDocument+"'")

	r, err := dec.Decode(context.Background(), sampleReplay(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(r.Players) != 2 {
		t.Fatalf("expected 2 players, got %+v", r.Players)
	}
	if r.Players[0].Username != "Alice" || r.Players[0].Operator != replay.Ash {
		t.Fatalf("unexpected first player %+v", r.Players[0])
	}
	if r.Players[1].Operator.Name() != "Thermite" {
		t.Fatalf("expected Thermite resolved by name, got %v", r.Players[1].Operator)
	}
	if r.MatchFeedback == nil {
		t.Fatal("expected non-nil feedback slice")
	}
}

func TestExternalDecodeKeepsUnknownOperatorNames(t *testing.T) {
	doc := `{"players":[` +
		`{"username":"Alice","operator":{"name":"Ash"}},` +
		`{"username":"Bob","operator":{"name":"Deimos"}}]}`
	dec := externalDecoder(t, "cat > /dev/null\nprintf '%s' '"+doc+"'")

	r, err := dec.Decode(context.Background(), sampleReplay(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(r.Players) != 2 {
		t.Fatalf("expected 2 players, got %+v", r.Players)
	}
	if got := r.Players[0].OperatorName(); got != "Ash" {
		t.Fatalf("first operator = %q, want Ash", got)
	}
	if got := r.Players[1].OperatorName(); got != "Deimos" {
		t.Fatalf("second operator = %q, want Deimos", got)
	}
}

func TestExternalDecodeStreamsInputOnStdin(t *testing.T) {
	script := `n=$(wc -c | tr -d ' ')
printf '{"players":[{"username":"bytes-%s","operator":{"name":"Ash"}}]}' "$n"`
	dec := externalDecoder(t, script)

	data := sampleReplay(t)
	r, err := dec.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := "bytes-" + strconv.Itoa(len(data))
	if r.Players[0].Username != want {
		t.Fatalf("expected %s, got %s", want, r.Players[0].Username)
	}
}

func TestExternalDecodeFailures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non-zero exit",
			script: "cat > /dev/null\necho 'boom: bad replay' >&2\nexit 3",
			check: func(t *testing.T, err error) {
				var extErr *decoder.ExternalError
				if !errors.As(err, &extErr) {
					t.Fatalf("expected ExternalError, got %v", err)
				}
				if extErr.ExitCode != 3 || extErr.Stderr != "boom: bad replay" {
					t.Fatalf("unexpected external error %+v", extErr)
				}
				if services.Kind(err) != "external_tool" || !errors.Is(err, services.ErrExternalTool) {
					t.Fatalf("expected external_tool kind, got %s", services.Kind(err))
				}
			},
		},
		{
			name:   "error document",
			script: "cat > /dev/null\necho '{\"error\":\"unsupported version\"}'",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, decoder.ErrInvalidOutput) || !strings.Contains(err.Error(), "unsupported version") {
					t.Fatalf("expected invalid output with message, got %v", err)
				}
			},
		},
		{
			name:   "not json",
			script: "cat > /dev/null\necho 'players: Alice'",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, decoder.ErrInvalidOutput) {
					t.Fatalf("expected invalid output, got %v", err)
				}
			},
		},
		{
			name:   "duplicate username",
			script: "cat > /dev/null\necho '{\"players\":[{\"username\":\"Alice\",\"operator\":\"Ash\"},{\"username\":\"Alice\",\"operator\":\"Sledge\"}]}'",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, decoder.ErrInvalidOutput) || !strings.Contains(err.Error(), `duplicate player "Alice"`) {
					t.Fatalf("expected duplicate player error, got %v", err)
				}
			},
		},
		{
			name:   "missing players",
			script: "cat > /dev/null\necho '{\"gameVersion\":\"Y8S4\"}'",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, decoder.ErrInvalidOutput) {
					t.Fatalf("expected invalid output, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := externalDecoder(t, tt.script)
			_, err := dec.Decode(context.Background(), sampleReplay(t))
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestExternalDecodeTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubDecoder("slow-dissect", "exec sleep 5"))
	dec := decoder.NewExternal(decoder.ExternalOptions{
		Binary:  cfg.Decoder.Binary,
		Timeout: 100 * time.Millisecond,
	}, nil)

	started := time.Now()
	_, err := dec.Decode(context.Background(), sampleReplay(t))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if services.Kind(err) != "timeout" {
		t.Fatalf("expected timeout kind, got %s", services.Kind(err))
	}
	if time.Since(started) > 4*time.Second {
		t.Fatalf("timeout not enforced, took %s", time.Since(started))
	}
}

package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
)

func readGzippedJSON(t *testing.T, path string, v any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()
	if err := json.NewDecoder(gz).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDisabledWriterIsNoOp(t *testing.T) {
	w := New("", false, true, proto.LobbyData{})
	if w.Enabled() {
		t.Fatalf("expected empty path to disable the writer")
	}
	w.Append(proto.GameState{Tick: 1})
	if err := w.Finalize(proto.GameEnd{}, true); err != nil {
		t.Fatalf("expected no-op finalize to succeed, got %v", err)
	}
}

func TestFinalizeWritesReplayAndResults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.json.gz")

	lobby := proto.LobbyData{Settings: proto.LobbySettings{NumberOfPlayers: 2}}
	w := New(path, false, true, lobby)
	w.Append(proto.GameState{Tick: 1})
	w.Append(proto.GameState{Tick: 2})

	end := proto.GameEnd{Players: []proto.GameEndPlayer{{ID: "p1", Nickname: "alice", Score: 3, Kills: 1}}}
	if err := w.Finalize(end, true); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	var doc Document
	readGzippedJSON(t, path, &doc)
	if len(doc.GameStates) != 2 {
		t.Fatalf("expected 2 recorded game states, got %d", len(doc.GameStates))
	}
	if doc.GameEnd == nil || len(doc.GameEnd.Players) != 1 {
		t.Fatalf("expected game end recorded with 1 player")
	}
	if doc.LobbyData.Settings.NumberOfPlayers != 2 {
		t.Fatalf("expected lobby data preserved")
	}

	var results Results
	readGzippedJSON(t, resultsPath(path), &results)
	if !results.Valid {
		t.Fatalf("expected results marked valid")
	}
	if len(results.Players) != 1 || results.Players[0].Score != 3 {
		t.Fatalf("unexpected results payload: %+v", results)
	}
}

func TestFinalizeSandboxModeSkipsResultsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.json.gz")

	w := New(path, false, false, proto.LobbyData{})
	if err := w.Finalize(proto.GameEnd{}, true); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if _, err := os.Stat(resultsPath(path)); !os.IsNotExist(err) {
		t.Fatalf("expected no results file in sandbox mode, stat err=%v", err)
	}
}

func TestFinalizeRefusesToOverwriteWithoutFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.json.gz")

	if err := os.WriteFile(path, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	w := New(path, false, false, proto.LobbyData{})
	if err := w.Finalize(proto.GameEnd{}, true); err == nil {
		t.Fatalf("expected finalize to fail against an existing file without overwrite")
	}
}

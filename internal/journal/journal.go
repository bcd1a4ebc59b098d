// Package journal writes the replay file: one composite JSON document of
// lobby data, every tick's spectator snapshot, and the final results
// (§4.H). A full per-tick snapshot list, not incremental diffs, so there is
// nothing to diff against or resync.
package journal

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
)

// Document is the single composite file written at match end.
type Document struct {
	LobbyData  proto.LobbyData    `json:"lobbyData"`
	GameStates []proto.GameState  `json:"gameStates"`
	GameEnd    *proto.GameEnd     `json:"gameEnd,omitempty"`
}

// ResultEntry is one ranked player in the sibling results file.
type ResultEntry struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
}

// Results is the competitive-mode sibling file (§4.H).
type Results struct {
	Players []ResultEntry `json:"players"`
	Valid   bool          `json:"valid"`
}

// Writer accumulates per-tick snapshots in memory and flushes the composite
// document (and, in competitive mode, the results file) on Finalize. The
// tick worker is the only appender (§5).
type Writer struct {
	path       string
	overwrite  bool
	competitive bool
	resultsPath string

	doc Document
}

// New builds a Writer. path is the replay file destination; if empty, the
// writer is a no-op (replay disabled).
func New(path string, overwrite, competitive bool, lobby proto.LobbyData) *Writer {
	return &Writer{
		path:        path,
		overwrite:   overwrite,
		competitive: competitive,
		resultsPath: resultsPath(path),
		doc:         Document{LobbyData: lobby},
	}
}

func resultsPath(replayPath string) string {
	if replayPath == "" {
		return ""
	}
	return replayPath + "_results"
}

// Enabled reports whether a replay path was configured.
func (w *Writer) Enabled() bool {
	return w.path != ""
}

// Append records one tick's spectator-view snapshot.
func (w *Writer) Append(gs proto.GameState) {
	if !w.Enabled() {
		return
	}
	w.doc.GameStates = append(w.doc.GameStates, gs)
}

// Finalize writes the composite document, and in competitive mode the
// results file, using validity as reported by the caller (whether any
// player disconnected mid-match, §4.H).
func (w *Writer) Finalize(end proto.GameEnd, validity bool) error {
	if !w.Enabled() {
		return nil
	}
	w.doc.GameEnd = &end

	if err := w.writeGzippedJSON(w.path, w.doc); err != nil {
		return fmt.Errorf("journal: write replay: %w", err)
	}

	if w.competitive {
		results := Results{Valid: validity}
		for _, p := range end.Players {
			results.Players = append(results.Players, ResultEntry{
				ID: p.ID, Nickname: p.Nickname, Score: p.Score, Kills: p.Kills,
			})
		}
		if err := w.writeGzippedJSON(w.resultsPath, results); err != nil {
			return fmt.Errorf("journal: write results: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeGzippedJSON(path string, v any) error {
	flag := os.O_CREATE | os.O_WRONLY
	if w.overwrite {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	enc := json.NewEncoder(gz)
	return enc.Encode(v)
}

// ABOUTME: Tests for stats command
// ABOUTME: Checks the reported store shape and pipeline stages

package commands

import (
	"strings"
	"testing"
)

type statsJSON struct {
	Chunks         int      `json:"chunks"`
	ChunksReadable bool     `json:"chunks_readable"`
	IndexRows      int      `json:"index_rows"`
	IndexDim       int      `json:"index_dim"`
	EmbeddingModel string   `json:"embedding_model"`
	Retrieval      []string `json:"retrieval"`
	Composition    []string `json:"composition"`
	Documents      []struct {
		Path       string `json:"path"`
		ChunkCount int    `json:"chunk_count"`
	} `json:"documents"`
}

func TestStatsCmd_EmptyStore(t *testing.T) {
	testEnv(t)
	out, err := runCLI(t, "--format", "json", "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var got statsJSON
	decodeJSON(t, out, &got)

	if got.Chunks != 0 || got.IndexRows != 0 {
		t.Errorf("chunks = %d, index rows = %d, want empty", got.Chunks, got.IndexRows)
	}
	if strings.Join(got.Retrieval, ",") != "lexical" {
		t.Errorf("retrieval = %v, want [lexical] in fallback mode", got.Retrieval)
	}
	if strings.Join(got.Composition, ",") != "completion,template" {
		t.Errorf("composition = %v", got.Composition)
	}
}

func TestStatsCmd_AfterIngest(t *testing.T) {
	dir := testEnv(t)
	ingestCorpus(t, dir)

	out, err := runCLI(t, "--format", "json", "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var got statsJSON
	decodeJSON(t, out, &got)

	if got.Chunks != 2 || got.IndexRows != 2 || got.IndexDim != 3 {
		t.Errorf("got %+v, want 2 chunks in a 2x3 index", got)
	}
	if !got.ChunksReadable {
		t.Error("chunks should be readable")
	}
	if got.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("embedding model = %q", got.EmbeddingModel)
	}
	if strings.Join(got.Retrieval, ",") != "vector,lexical" {
		t.Errorf("retrieval = %v, want vector then lexical", got.Retrieval)
	}
	if len(got.Documents) != 2 {
		t.Errorf("documents = %+v", got.Documents)
	}
}

func TestStatsCmd_Text(t *testing.T) {
	dir := testEnv(t)
	ingestCorpus(t, dir)

	out, err := runCLI(t, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	for _, want := range []string{"chunks:", "index dim:", "DOCUMENT", "bombas.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// ABOUTME: Tests for ingest command
// ABOUTME: Builds a store against a fake embeddings endpoint and checks the report

package commands

import (
	"strings"
	"testing"
)

func TestNewIngestCmd(t *testing.T) {
	cmd := NewIngestCmd()

	if !strings.HasPrefix(cmd.Use, "ingest") {
		t.Errorf("Use = %q, want ingest prefix", cmd.Use)
	}
	for _, name := range []string{"concurrency", "batch-size"} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("--%s flag not found", name)
		}
		if flag.DefValue != "0" {
			t.Errorf("--%s default = %q, want 0 (use config)", name, flag.DefValue)
		}
	}
}

func TestIngestCmd_WritesStore(t *testing.T) {
	dir := testEnv(t)
	srv := fakeEmbeddings(t)
	t.Setenv("FALLBACK_MODE", "false")
	t.Setenv("EMBEDDING_API_URL", srv.URL+"/v1")
	docs := writeCorpus(t, dir)

	out, err := runCLI(t, "ingest", "--concurrency", "2", "--batch-size", "1", docs)
	if err != nil {
		t.Fatalf("ingest error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Ingested 2 document(s), 2 chunk(s) added, 2 total (dim 3)") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "manual.pdf") {
		t.Errorf("skipped PDF should be reported:\n%s", out)
	}

	// A second run appends after the existing chunks
	out, err = runCLI(t, "--format", "json", "ingest", docs)
	if err != nil {
		t.Fatalf("second ingest error = %v\n%s", err, out)
	}
	var report struct {
		Files   []string `json:"files"`
		Skipped []struct {
			Path   string `json:"path"`
			Reason string `json:"reason"`
		} `json:"skipped"`
		Result struct {
			ChunksAdded int `json:"chunks_added"`
			TotalChunks int `json:"total_chunks"`
			Documents   []struct {
				ChunkStart int `json:"chunk_start"`
			} `json:"documents"`
		} `json:"result"`
	}
	decodeJSON(t, out, &report)
	if len(report.Files) != 2 || len(report.Skipped) != 1 {
		t.Errorf("files = %v, skipped = %v", report.Files, report.Skipped)
	}
	if report.Result.ChunksAdded != 2 || report.Result.TotalChunks != 4 {
		t.Errorf("added = %d, total = %d, want 2 and 4", report.Result.ChunksAdded, report.Result.TotalChunks)
	}
	if len(report.Result.Documents) != 2 || report.Result.Documents[0].ChunkStart != 2 {
		t.Errorf("documents = %+v, want first new document at chunk 2", report.Result.Documents)
	}
}

func TestIngestCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{
			name:    "fallback mode",
			env:     map[string]string{"FALLBACK_MODE": "true"},
			args:    []string{"ingest", "docs"},
			wantErr: "embedding endpoint",
		},
		{
			name:    "bad concurrency",
			env:     map[string]string{"FALLBACK_MODE": "false"},
			args:    []string{"ingest", "--concurrency=-1", "docs"},
			wantErr: "concurrency must be positive",
		},
		{
			name:    "bad batch size",
			env:     map[string]string{"FALLBACK_MODE": "false"},
			args:    []string{"ingest", "--batch-size", "0", "docs"},
			wantErr: "batch-size must be positive",
		},
		{
			name:    "no args",
			args:    []string{"ingest"},
			wantErr: "requires at least 1 arg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

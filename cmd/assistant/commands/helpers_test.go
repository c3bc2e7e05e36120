// ABOUTME: Shared fixtures for command tests
// ABOUTME: Isolated environment, CLI runner and fake model endpoints

package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv points every path and endpoint at the test and returns the data dir.
// Vector retrieval is off and the completion endpoint refuses connections.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VECTOR_DB_INDEX", filepath.Join(dir, "index.vec"))
	t.Setenv("VECTOR_DB_DOCS", filepath.Join(dir, "chunks.db"))
	t.Setenv("FALLBACK_MODE", "true")
	t.Setenv("OLLAMA_API_URL", "http://127.0.0.1:1/api/generate")
	t.Setenv("COMPLETION_TIMEOUT", "1s")
	t.Setenv("EMBEDDING_API_URL", "http://127.0.0.1:1/v1")
	t.Setenv("EMBEDDING_MAX_RETRIES", "0")
	t.Setenv("LEXICON_PATH", "")
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("INGEST_CONCURRENCY", "")
	t.Setenv("INGEST_BATCH_SIZE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_JSON", "")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fakeEmbeddings serves an OpenAI-compatible /embeddings endpoint. Each text
// maps to a 3-dim vector flagging pump, filter and maintenance mentions.
func fakeEmbeddings(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i, text := range req.Input {
			lower := strings.ToLower(text)
			vec := make([]float32, 0, 3)
			for _, kw := range []string{"bomba", "filtro", "mantenimiento"} {
				if strings.Contains(lower, kw) {
					vec = append(vec, 1)
				} else {
					vec = append(vec, 0)
				}
			}
			data = append(data, map[string]any{"object": "embedding", "embedding": vec, "index": i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 0, "total_tokens": 0},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeCorpus lays out two small documents and one PDF under dir/docs
func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	docs := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"bombas.txt":  "Mawell ofrece la bomba centrífuga BC-200 para riego agrícola. La bomba trabaja con caudal alto y motor eficiente.\n",
		"filtros.txt": "El filtro de arena de Mawell retiene sedimentos del agua de pozo antes del tratamiento.\n",
		"manual.pdf":  "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(docs, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return docs
}

// ingestCorpus builds the store through the ingest command with embeddings on
func ingestCorpus(t *testing.T, dir string) {
	t.Helper()
	srv := fakeEmbeddings(t)
	t.Setenv("FALLBACK_MODE", "false")
	t.Setenv("EMBEDDING_API_URL", srv.URL+"/v1")

	if out, err := runCLI(t, "ingest", writeCorpus(t, dir)); err != nil {
		t.Fatalf("ingest failed: %v\n%s", err, out)
	}
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
}

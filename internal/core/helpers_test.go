package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/mawell/doc-assistant/internal/chunkstore"
	"github.com/mawell/doc-assistant/internal/models"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Mawell es una empresa con más de 20 años de experiencia en tratamiento de agua para la industria.",
	"Las bombas centrífugas de Mawell alcanzan un caudal de 50 litros por minuto. El equipo incluye un motor de 2 HP.",
	"El servicio de mantenimiento preventivo incluye limpieza de filtros y revisión de la presión cada seis meses.",
	"El proceso de ósmosis inversa tiene tres etapas: primero la prefiltración, luego la membrana y finalmente la remineralización del agua.",
	"¿Qué equipos ofrece Mawell? ¿Cuánto cuesta una bomba? ¿Hacen mantenimiento?",
	"Receta de pan casero con harina y levadura.",
}

func testLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex, err := DefaultLexicon()
	require.NoError(t, err)
	return lex
}

func chunkList(texts ...string) *chunkstore.ChunkList {
	chunks := make([]models.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, models.FromString(text))
	}
	return chunkstore.NewChunkList(chunks)
}

// stubEmbedder returns fixed vectors per query
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

// stubCompleter returns a canned response and counts calls
type stubCompleter struct {
	response string
	err      error
	calls    atomic.Int32
}

func (s *stubCompleter) Complete(context.Context, string) (string, error) {
	s.calls.Add(1)
	return s.response, s.err
}

// brokenChunks reports an unreadable list but serves a readable head
type brokenChunks struct {
	*chunkstore.ChunkList
}

func (b brokenChunks) All() ([]models.Chunk, error) {
	return nil, chunkstore.ErrUnreadableChunk
}

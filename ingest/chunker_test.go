package ingest

import (
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Fraud is common. Detection helps! Does it? Yes.")
	want := []string{"Fraud is common.", "Detection helps!", "Does it?", "Yes."}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkTextShortInputPassesThrough(t *testing.T) {
	text := "A short paragraph."
	chunks := ChunkText(text, 500, 100)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("short text must come back unchanged, got %v", chunks)
	}
}

func TestChunkTextRespectsSizeAndOverlap(t *testing.T) {
	sentence := "Card skimming devices capture magnetic stripe data at the point of sale."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 30))

	chunks := ChunkText(text, 500, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		// A chunk may exceed the target by at most one sentence plus the
		// carried overlap.
		if len(c) > 500+len(sentence)+100 {
			t.Errorf("chunk %d too large: %d chars", i, len(c))
		}
		if strings.TrimSpace(c) != c {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}
	// Consecutive chunks share the overlap tail.
	tail := overlapTail(chunks[0], 100)
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("chunk 1 must start with the overlap of chunk 0:\ntail  %q\nchunk %q", tail, chunks[1][:120])
	}
}

func TestOverlapTailCapped(t *testing.T) {
	chunk := strings.Repeat("verylongword ", 40)
	tail := overlapTail(chunk, 100)
	if len(tail) > 100 {
		t.Errorf("overlap tail exceeds cap: %d chars", len(tail))
	}
}

func TestChunkTextNoSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("x", 1200)
	chunks := ChunkText(text, 500, 100)
	// One unbreakable run stays a single chunk rather than being cut
	// mid-word.
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk for boundary-free text, got %d", len(chunks))
	}
}

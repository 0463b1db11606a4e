package csv

import (
	"bufio"
	"bytes"
	"io"
)

const rewriteChunk = 64 * 1024

// streamingRewriter replaces every occurrence of pat with repl in a stream
// without buffering it whole. It holds back the last len(pat)-1 bytes of each
// chunk so matches spanning chunk boundaries are still found.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	chunk []byte
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, rewriteChunk),
		pat:   pat,
		repl:  repl,
		chunk: make([]byte, rewriteChunk),
	}
}

func (sr *streamingRewriter) Read(p []byte) (int, error) {
	for sr.buf.Len() == 0 {
		if sr.eof {
			return 0, io.EOF
		}
		if err := sr.fill(); err != nil {
			return 0, err
		}
	}
	return sr.buf.Read(p)
}

// fill reads one chunk, rewrites it and queues everything but the new carry.
func (sr *streamingRewriter) fill() error {
	n, err := sr.br.Read(sr.chunk)
	block := append(sr.carry, sr.chunk[:n]...)
	sr.carry = nil

	if err == io.EOF {
		sr.eof = true
		sr.buf.Write(bytes.ReplaceAll(block, sr.pat, sr.repl))
		return nil
	}
	if err != nil {
		return err
	}

	block = bytes.ReplaceAll(block, sr.pat, sr.repl)
	keep := len(sr.pat) - 1
	if keep > len(block) {
		keep = len(block)
	}
	cut := len(block) - keep
	sr.buf.Write(block[:cut])
	sr.carry = append([]byte(nil), block[cut:]...)
	return nil
}

// withReplacements chains one rewriter per pattern, in order.
func withReplacements(r io.Reader, order []string, repl map[string]string) io.Reader {
	for _, from := range order {
		if from == "" || from == repl[from] {
			continue
		}
		r = newStreamingRewriter(r, []byte(from), []byte(repl[from]))
	}
	return r
}

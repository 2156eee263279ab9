package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// readSegments decodes message segments. A JSON array holds segments, a JSON
// object is one segment and anything else is a single text segment.
func readSegments(r io.Reader) ([]engine.Segment, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimRight(string(b), "\r\n")
	switch trimmed := strings.TrimSpace(raw); {
	case strings.HasPrefix(trimmed, "["):
		var segs []engine.Segment
		if err := json.Unmarshal([]byte(trimmed), &segs); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
		return segs, nil
	case strings.HasPrefix(trimmed, "{"):
		var seg engine.Segment
		if err := json.Unmarshal([]byte(trimmed), &seg); err != nil {
			return nil, fmt.Errorf("decode segment: %w", err)
		}
		return []engine.Segment{seg}, nil
	case raw == "":
		return nil, nil
	default:
		return []engine.Segment{engine.Text(raw)}, nil
	}
}

// inputSegments resolves --text, then --input (a path or "-" for stdin).
func inputSegments(text, input string, stdin io.Reader) ([]engine.Segment, error) {
	if text != "" {
		return []engine.Segment{engine.Text(text)}, nil
	}
	if input == "" || input == "-" {
		return readSegments(stdin)
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSegments(f)
}

// readBatch reads one message per non-blank line.
func readBatch(r io.Reader) ([][]engine.Segment, error) {
	var out [][]engine.Segment
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		segs, err := readSegments(strings.NewReader(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, segs)
	}
	return out, sc.Err()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

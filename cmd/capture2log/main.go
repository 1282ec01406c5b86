package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"surveyor/internal/capture"
	"surveyor/internal/survey/parser"
)

// LogLine is one chat line recovered from a capture
type LogLine struct {
	File string // source log the line was read from
	Text string
	Line int // 1-based position in the recovered stream
}

func main() {
	var (
		source     = flag.String("capture", "", "Capture file or directory of capture files")
		startLine  = flag.Int("start-line", 1, "Starting line number (1-based)")
		endLine    = flag.Int("end-line", -1, "Ending line number (1-based, -1 for end of stream)")
		fileFilter = flag.String("file", "", "Only keep lines read from logs with this base name")
		outputFile = flag.String("output", "", "Output log file path (prints to stdout if not specified)")
	)
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "Error: -capture is required")
		flag.Usage()
		os.Exit(2)
	}

	paths, err := captureFiles(*source)
	if err != nil {
		fmt.Printf("Error listing captures: %v\n", err)
		os.Exit(1)
	}

	lines, err := recoverLines(paths, *fileFilter, *startLine, *endLine)
	if err != nil {
		fmt.Printf("Error reading capture: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := writeLogToFile(lines, *outputFile); err != nil {
			fmt.Printf("Error writing log file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d lines to %s\n", len(lines), *outputFile)
		return
	}
	if err := writeLog(os.Stdout, lines); err != nil {
		os.Exit(1)
	}
}

// captureFiles expands a directory into its capture files, oldest first.
func captureFiles(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{source}, nil
	}
	return capture.Files(source)
}

// recoverLines replays every captured delta in order and keeps the lines
// numbered within [startLine, endLine]. A delta that ends mid-line is joined
// with the next delta from the same file.
func recoverLines(paths []string, fileFilter string, startLine, endLine int) ([]LogLine, error) {
	var (
		lines   []LogLine
		pending = make(map[string]string)
		n       int
	)

	emit := func(file, text string) {
		n++
		if n < startLine || (endLine != -1 && n > endLine) {
			return
		}
		lines = append(lines, LogLine{File: file, Text: text, Line: n})
	}

	for _, path := range paths {
		err := capture.ReadFile(path, func(e capture.Entry) error {
			if fileFilter != "" && filepath.Base(e.File) != fileFilter {
				return nil
			}
			text := pending[e.File] + e.Text
			delete(pending, e.File)

			complete := strings.HasSuffix(text, "\n")
			parts := parser.SplitLines(text)
			if !complete && len(parts) > 0 {
				pending[e.File] = parts[len(parts)-1]
				parts = parts[:len(parts)-1]
			}
			for _, p := range parts {
				emit(e.File, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	// Whatever never saw its newline is still a line
	for _, path := range sortedKeys(pending) {
		emit(path, pending[path])
	}
	return lines, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeLog(w io.Writer, lines []LogLine) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := fmt.Fprintf(bw, "%s\n", l.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeLogToFile(lines []LogLine, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeLog(file, lines)
}

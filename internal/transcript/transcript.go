// Package transcript writes the record of a game and reads it back as a
// history to replay.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChizhovVadim/ccheck/pkg/common"
)

type Writer struct {
	w      *bufio.Writer
	closer io.Closer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create truncates path and writes the transcript there.
func Create(path string) (*Writer, error) {
	var f, err = os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	var w = NewWriter(f)
	w.closer = f
	return w, nil
}

// Write records the move played at ply and flushes it.
func (w *Writer) Write(ply int, side common.Side, m common.Move) error {
	if w == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w.w, FormatLine(ply, side, m)); err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	var err = w.w.Flush()
	if w.closer != nil {
		if closeErr := w.closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// FormatLine renders one transcript line: "3. white:n5-m5" for White and
// "3. ... black:d10-e10" for Black.
func FormatLine(ply int, side common.Side, m common.Move) string {
	var turn = ply/2 + 1
	if side == common.White {
		return fmt.Sprintf("%d. %v:%v", turn, side, m)
	}
	return fmt.Sprintf("%d. ... %v:%v", turn, side, m)
}

// Entry is one move of a history. Side is meaningful only when HasSide is set.
type Entry struct {
	Line    int
	Side    common.Side
	HasSide bool
	Move    common.Move
}

// Load reads a history file.
func Load(path string) ([]Entry, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a history. It accepts transcript lines as Write produces them,
// tournament lines ("@@@white:n5-m5") and bare move text, one move per line.
// Blank lines and lines starting with '#' are skipped. Moves are checked for
// syntax only.
func Read(r io.Reader) ([]Entry, error) {
	var result []Entry
	var scanner = bufio.NewScanner(r)
	var lineNumber = 0
	for scanner.Scan() {
		lineNumber++
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var entry, err = parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("history line %d: %w", lineNumber, err)
		}
		entry.Line = lineNumber
		result = append(result, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return result, nil
}

func parseLine(line string) (Entry, error) {
	var fields = strings.Fields(line)
	if len(fields) > 0 && strings.HasSuffix(fields[0], ".") {
		if _, err := strconv.Atoi(strings.TrimSuffix(fields[0], ".")); err != nil {
			return Entry{}, fmt.Errorf("bad turn number %q", fields[0])
		}
		fields = fields[1:]
	}
	if len(fields) > 0 && fields[0] == "..." {
		fields = fields[1:]
	}
	if len(fields) != 1 {
		return Entry{}, fmt.Errorf("expected one move in %q", line)
	}
	var text = strings.TrimPrefix(fields[0], "@@@")

	var entry Entry
	if i := strings.IndexByte(text, ':'); i >= 0 {
		var side, err = common.ParseSide(text[:i])
		if err != nil {
			return Entry{}, err
		}
		entry.Side = side
		entry.HasSide = true
		text = text[i+1:]
	}
	var m, err = common.ParseMove(text)
	if err != nil {
		return Entry{}, err
	}
	entry.Move = m
	return entry, nil
}

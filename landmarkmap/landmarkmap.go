// Package landmarkmap loads the fixed landmark map from the plain-text
// configuration format described in the engine's external interface:
// one "serial x y" record per line. This is glue around the core
// engine (§1 lists landmark-map loading as an out-of-scope
// collaborator) but is given a concrete, teacher-grounded
// implementation the way dbinterface.go gives the beacon list a
// concrete loader.
package landmarkmap

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Landmark is one fixed, world-frame landmark.
type Landmark struct {
	Serial int
	X, Y   float64
}

// Map is the ordered, immutable-after-load sequence of landmarks.
type Map struct {
	landmarks []Landmark
}

// Len returns the landmark count L.
func (m *Map) Len() int { return len(m.landmarks) }

// At returns landmark index ell (not its serial).
func (m *Map) At(ell int) Landmark { return m.landmarks[ell] }

// Load reads a landmark map from path.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "landmarkmap: failed to open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a landmark map from r, one "serial x y" record per line.
// Blank lines and lines starting with '#' are skipped. Any other
// malformed line is a fatal configuration error.
func Read(r io.Reader) (*Map, error) {
	scanner := bufio.NewScanner(r)
	m := &Map{landmarks: make([]Landmark, 0, 16)}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("landmarkmap: line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		serial, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "landmarkmap: line %d: invalid serial %q", lineNo, fields[0])
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "landmarkmap: line %d: invalid x %q", lineNo, fields[1])
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "landmarkmap: line %d: invalid y %q", lineNo, fields[2])
		}
		m.landmarks = append(m.landmarks, Landmark{Serial: serial, X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "landmarkmap: failed to scan file")
	}
	if len(m.landmarks) == 0 {
		return nil, errors.New("landmarkmap: no landmarks parsed")
	}
	return m, nil
}

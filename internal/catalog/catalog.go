// Package catalog reads and writes point-source catalogs and generates
// the mock arrangements used for testing and reference runs.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shaoguangleo/uvsim/internal/sky"
)

const header = "SOURCE_ID\tRA_J2000 [deg]\tDec_J2000 [deg]\tFlux [Jy]\tFrequency [Hz]"

const degToRad = math.Pi / 180

// Read parses a text catalog: a header line followed by one
// whitespace-separated row per source with columns source id, right
// ascension and declination in decimal degrees (J2000), Stokes I flux in
// janskys, and reference frequency in hertz. A malformed row is an error;
// catalog problems must surface before any computation is distributed.
func Read(r io.Reader) ([]*sky.Source, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading catalog header: %w", err)
		}
		return nil, fmt.Errorf("%w: empty catalog", sky.ErrInvalidArgument)
	}

	var sources []*sky.Source
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: catalog line %d: expected 5 columns, got %d", sky.ErrInvalidArgument, line, len(fields))
		}
		vals := make([]float64, 4)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: catalog line %d column %d: %v", sky.ErrInvalidArgument, line, i+2, err)
			}
			vals[i] = v
		}
		src, err := sky.NewSource(fields[0], vals[0]*degToRad, vals[1]*degToRad, vals[3], [4]float64{vals[2], 0, 0, 0})
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		sources = append(sources, src)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: catalog has no sources", sky.ErrInvalidArgument)
	}
	return sources, nil
}

// ReadFile reads a catalog from a file path.
func ReadFile(path string) ([]*sky.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	sources, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sources, nil
}

// Write emits a catalog in the format Read accepts. Only the Stokes I
// component is stored.
func Write(w io.Writer, sources []*sky.Source) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return fmt.Errorf("writing catalog header: %w", err)
	}
	for _, s := range sources {
		_, err := fmt.Fprintf(bw, "%s\t%f\t%f\t%0.2f\t%0.2f\n",
			s.Name, s.RA/degToRad, s.Dec/degToRad, s.Stokes[0], s.FreqHz)
		if err != nil {
			return fmt.Errorf("writing catalog row %q: %w", s.Name, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes a catalog to a file path, replacing any existing file.
func WriteFile(path string, sources []*sky.Source) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating catalog: %w", err)
	}
	if err := Write(f, sources); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

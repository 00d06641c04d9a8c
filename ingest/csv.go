package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/killchain/core/model"
)

var columnAliases = map[string]string{
	"target": "target", "target_id": "target", "target id": "target",
	"phase": "phase", "phase_id": "phase", "phase_num": "phase",
	"platform": "platform", "platform_id": "platform", "plat id": "platform", "plat_num": "platform",
	"duration": "duration", "proc_time": "duration",
}

// ReadCSV decodes a long or wide layout CSV table.
func ReadCSV(r io.Reader, chain model.KillChain) (*model.AssignmentTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrFormat)
		}
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if name, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[name] = i
		}
	}
	ti, okT := cols["target"]
	pi, okP := cols["phase"]
	if !okT || !okP {
		return nil, fmt.Errorf("%w: header needs target and phase columns", ErrFormat)
	}

	b := model.NewTableBuilder(chain)
	plat, okPl := cols["platform"]
	dur, okD := cols["duration"]
	if okPl && okD {
		err = readLong(cr, chain, b, ti, pi, plat, dur)
	} else {
		err = readWide(cr, chain, b, header, ti, pi)
	}
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func readLong(cr *csv.Reader, chain model.KillChain, b *model.TableBuilder, ti, pi, plat, dur int) error {
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		line, _ := cr.FieldPos(0)
		t, ph, err := rowKey(chain, rec, ti, pi)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		p, err := strconv.Atoi(strings.TrimSpace(rec[plat]))
		if err != nil {
			return fmt.Errorf("%w: line %d: platform %q", ErrFormat, line, rec[plat])
		}
		d, err := parseDuration(rec[dur])
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		b.Set(t, ph, model.PlatformID(p), d)
	}
}

func readWide(cr *csv.Reader, chain model.KillChain, b *model.TableBuilder, header []string, ti, pi int) error {
	platforms := make(map[int]model.PlatformID)
	for i, h := range header {
		if i == ti || i == pi {
			continue
		}
		h = strings.TrimSpace(h)
		h = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(h), "platform"), "_")
		id, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return fmt.Errorf("%w: column %q is not a platform id", ErrFormat, header[i])
		}
		platforms[i] = model.PlatformID(id)
		b.AddPlatform(model.PlatformID(id))
	}
	if len(platforms) == 0 {
		return fmt.Errorf("%w: no platform or duration columns", ErrFormat)
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		line, _ := cr.FieldPos(0)
		t, ph, err := rowKey(chain, rec, ti, pi)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		b.AddTarget(t)
		for i, pl := range platforms {
			if strings.TrimSpace(rec[i]) == "" {
				continue
			}
			d, err := parseDuration(rec[i])
			if err != nil {
				return fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
			}
			b.Set(t, ph, pl, d)
		}
	}
}

func rowKey(chain model.KillChain, rec []string, ti, pi int) (model.TargetID, model.PhaseID, error) {
	t, err := strconv.Atoi(strings.TrimSpace(rec[ti]))
	if err != nil {
		return 0, 0, fmt.Errorf("target %q", rec[ti])
	}
	ph, err := parsePhase(chain, rec[pi])
	if err != nil {
		return 0, 0, err
	}
	return model.TargetID(t), ph, nil
}

// parseDuration accepts integers and integral floats such as "3.0" written
// by spreadsheets. Blank cells are ineligible.
func parseDuration(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Ineligible, nil
	}
	if d, err := strconv.ParseInt(s, 10, 64); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("duration %q is not an integer", s)
	}
	return int64(f), nil
}

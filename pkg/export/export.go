package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/killchain/core/model"
)

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, s model.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes one row per assignment, phase names resolved through chain.
func WriteCSV(w io.Writer, s model.Schedule, chain model.KillChain) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"target_id", "phase_id", "phase", "platform_id", "start", "duration", "end"}); err != nil {
		return err
	}
	for _, r := range s.Results {
		rec := []string{
			strconv.Itoa(int(r.Target)),
			strconv.Itoa(int(r.Phase)),
			chain.Name(r.Phase),
			strconv.Itoa(int(r.Platform)),
			strconv.FormatInt(r.Start, 10),
			strconv.FormatInt(r.Duration, 10),
			strconv.FormatInt(r.End, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

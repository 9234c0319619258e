package fjc

import (
	"compress/bzip2"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/farleyknight/legal-outcome-prediction/pkg/logging"
)

// Column aliases across extract vintages. Header matching is
// case-insensitive; the first alias found wins.
var columnAliases = map[string][]string{
	"district":    {"district"},
	"docket":      {"docket", "dession", "docket_number"},
	"nos":         {"nos", "nature_of_suit"},
	"disposition": {"disp", "disposition"},
	"judgment":    {"judgment", "judgmt"},
	"filedate":    {"filedate", "date_filed"},
	"termdate":    {"termdate", "date_terminated"},
}

// Load reads a civil terminations extract from path. Files ending in .bz2
// are decompressed transparently. Rows with the wrong field count or an
// unparseable NOS code are skipped, not fatal; the extract routinely
// contains a handful of malformed lines.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		r = bzip2.NewReader(f)
	}
	return Parse(r)
}

// Parse reads extract records from r. See Load for the tolerance rules.
func Parse(r io.Reader) ([]Record, error) {
	logger := logging.NewLogger("fjc")

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(row) < len(header) {
			skipped++
			continue
		}

		nos, err := strconv.Atoi(strings.TrimSpace(row[cols["nos"]]))
		if err != nil {
			skipped++
			continue
		}

		records = append(records, Record{
			District:        strings.TrimSpace(row[cols["district"]]),
			DocketRaw:       strings.TrimSpace(row[cols["docket"]]),
			NOS:             nos,
			Disposition:     row[cols["disposition"]],
			Judgment:        row[cols["judgment"]],
			FilingDate:      ConvertDate(row[cols["filedate"]]),
			TerminationDate: ConvertDate(row[cols["termdate"]]),
		})
	}

	if skipped > 0 {
		logger.Warn().Int("skipped", skipped).Int("loaded", len(records)).Msg("Skipped malformed dataset rows")
	}
	return records, nil
}

// mapColumns resolves the header to column indexes via the alias table.
func mapColumns(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		found := false
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				cols[field] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("dataset header is missing a %s column (tried %v)", field, aliases)
		}
	}
	return cols, nil
}

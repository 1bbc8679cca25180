package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// WriteTable prints the ranked results as an aligned table followed by the
// summary line.
func WriteTable(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tRESUME\tMISSING KEYWORDS\tNOTE")
	for _, r := range s.Results {
		rank, score, note := "-", "-", r.Error
		if r.Error == "" {
			rank = fmt.Sprint(r.Rank)
			score = fmt.Sprint(r.Score)
			if r.Duplicate {
				note = "duplicate"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rank, score, r.Name, missing(r, 5), note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d resumes, %d analyzed, %d failed, mean score %.1f (%s)\n",
		s.Total, s.Succeeded, s.Failed, s.MeanScore, s.Duration.Round(time.Millisecond))
	return err
}

func missing(r Result, n int) string {
	if r.Report == nil || len(r.Report.MissingKeywords) == 0 {
		return "-"
	}
	terms := make([]string, 0, n)
	for _, k := range r.Report.MissingKeywords {
		if len(terms) == n {
			terms = append(terms, "...")
			break
		}
		terms = append(terms, k.Term)
	}
	return strings.Join(terms, ", ")
}

// WriteJSON encodes the summary, reports included.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

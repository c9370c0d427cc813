package classification

import (
	"fmt"
	"io"
	"strings"

	"github.com/Tutortoise/classification-async/models"
)

// PrintResults writes the console report for results.
func PrintResults(w io.Writer, results []models.Classification, ntop int) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nTop %d results:\n\n", ntop)
	for _, r := range results {
		fmt.Fprintf(&sb, "Image %s\n\n", r.Image)
		sb.WriteString("classid probability label\n")
		sb.WriteString("------- ----------- -----\n")
		for _, p := range r.Predictions {
			fmt.Fprintf(&sb, "%-7d %-11.7f %s\n", p.ClassID, p.Probability, p.Label)
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

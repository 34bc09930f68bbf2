package answer

import (
	"fmt"
	"strings"

	"github.com/kotae-ai/kotae/internal/models"
)

// assembleContext concatenates retrieved chunks into a "Source N:" grounding
// block bounded by maxChars. Results must arrive highest score first; when the
// budget runs out, the lowest-scoring results are the ones dropped. Returns
// the block and the results that made it in.
func assembleContext(results []models.QueryResult, maxChars int) (string, []models.QueryResult) {
	var sb strings.Builder
	included := make([]models.QueryResult, 0, len(results))
	for _, r := range results {
		entry := fmt.Sprintf("Source %d: %s", len(included)+1, r.Text)
		extra := len(entry)
		if sb.Len() > 0 {
			extra += 2 // separator
		}
		if maxChars > 0 && sb.Len()+extra > maxChars {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(entry)
		included = append(included, r)
	}
	return sb.String(), included
}

package shortlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/schemas"
	"github.com/jonathan/placement-matcher/internal/types"
	schemafiles "github.com/jonathan/placement-matcher/schemas"
)

// ErrParse is returned when a verdict matches none of the accepted shapes
var ErrParse = errors.New("unrecognized verdict format")

// ParseErrorGap is recorded for verdicts that cannot be parsed
const ParseErrorGap = "Parse error"

var (
	scoreLine   = regexp.MustCompile(`Score:\s*(\d+)%`)
	gapBrackets = regexp.MustCompile(`Gap:\s*\[(.*?)\]`)
	bulletLine  = regexp.MustCompile(`(?m)^[ \t]*-[ \t]*(.+?)[ \t]*$`)
)

// structuredVerdict is the JSON shape requested from the model
type structuredVerdict struct {
	Score int      `json:"score"`
	Gaps  []string `json:"gaps"`
}

// RenderVerdict formats a verdict in the canonical text shape
func RenderVerdict(score int, gaps []string) string {
	return fmt.Sprintf("Score: %d%%\nGap: [%s]", score, strings.Join(gaps, ", "))
}

// ErrorVerdict is the verdict text used when the model could not be consulted
func ErrorVerdict(err error) string {
	return fmt.Sprintf("Score: 0%%\nGap: [Error: %s]", err.Error())
}

// ParseVerdict extracts the score and gaps from a verdict. Accepted shapes, in order: the
// structured JSON object, "Score: X%" with "Gap: [a, b]", and "Score: X%" followed by "- item" lines.
func ParseVerdict(text string) (types.Verdict, error) {
	if v, ok := parseStructured(text); ok {
		return v, nil
	}

	score := scoreLine.FindStringSubmatch(text)
	if score == nil {
		return types.Verdict{}, fmt.Errorf("%w: no score", ErrParse)
	}
	value, err := strconv.Atoi(score[1])
	if err != nil {
		return types.Verdict{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	value = min(value, 100)

	if gap := gapBrackets.FindStringSubmatch(text); gap != nil {
		return types.Verdict{Score: value, Gap: gap[1], Gaps: splitGaps(gap[1])}, nil
	}

	var items []string
	for _, m := range bulletLine.FindAllStringSubmatch(text, -1) {
		items = append(items, strings.TrimSpace(m[1]))
	}
	if len(items) > 0 {
		return types.Verdict{Score: value, Gap: strings.Join(items, ", "), Gaps: items}, nil
	}

	return types.Verdict{}, fmt.Errorf("%w: no gap list", ErrParse)
}

func parseStructured(text string) (types.Verdict, bool) {
	cleaned := llm.CleanJSONBlock(text)
	if !strings.HasPrefix(cleaned, "{") {
		return types.Verdict{}, false
	}
	if err := schemas.Validate(schemafiles.Verdict, []byte(cleaned)); err != nil {
		return types.Verdict{}, false
	}

	var sv structuredVerdict
	if err := json.Unmarshal([]byte(cleaned), &sv); err != nil {
		return types.Verdict{}, false
	}
	return types.Verdict{Score: sv.Score, Gap: strings.Join(sv.Gaps, ", "), Gaps: sv.Gaps}, true
}

func splitGaps(gap string) []string {
	var out []string
	for _, item := range strings.Split(gap, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

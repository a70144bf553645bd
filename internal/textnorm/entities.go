package textnorm

import (
	"regexp"
	"sort"
	"strings"
)

var datePattern = regexp.MustCompile(
	`\b(?:` +
		`(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(?:19|20)\d{2}` +
		`|\d{1,2}\+?\s*(?:years?|yrs?|months?)` +
		`|(?:19|20)\d{2}` +
		`)\b`)

// knownOrganizations lists vendors and products worth surfacing as extra tokens
var knownOrganizations = []string{
	"amazon web services", "google cloud", "microsoft azure", "red hat", "sql server", "power bi",
	"apache kafka", "apache spark", "github", "gitlab", "salesforce", "tableau", "oracle", "sap",
	"ibm", "microsoft", "google", "amazon", "meta", "cisco", "vmware", "databricks", "snowflake",
	"mongodb", "postgresql", "mysql", "docker", "kubernetes", "terraform", "jenkins", "jira",
	"tensorflow", "pytorch", "hadoop", "linux", "android", "ios", "excel", "figma",
}

var organizationPattern = buildAlternation(knownOrganizations)

func buildAlternation(terms []string) *regexp.Regexp {
	sorted := append([]string(nil), terms...)
	// Longer names first so "google cloud" wins over "google"
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// extractEntities returns date, organisation and product mentions in order of appearance
func extractEntities(folded string) []string {
	type mention struct {
		start int
		text  string
	}

	var mentions []mention
	for _, p := range []*regexp.Regexp{datePattern, organizationPattern} {
		for _, loc := range p.FindAllStringIndex(folded, -1) {
			mentions = append(mentions, mention{start: loc[0], text: folded[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].start < mentions[j].start })

	seen := make(map[string]struct{}, len(mentions))
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		if _, dup := seen[m.text]; dup {
			continue
		}
		seen[m.text] = struct{}{}
		out = append(out, m.text)
	}
	return out
}

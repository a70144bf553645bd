package summarize

import "strings"

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"aws":        "AWS",
	"gcp":        "GCP",
}

// NormalizeSkillName returns the canonical spelling of a skill name
func NormalizeSkillName(skill string) string {
	skill = strings.TrimSpace(skill)
	if canonical, ok := skillNormalizations[strings.ToLower(skill)]; ok {
		return canonical
	}
	return skill
}

// NormalizeSkillList canonicalizes a comma separated skill list and drops case-insensitive duplicates
func NormalizeSkillList(list string) string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(list, ",") {
		skill := NormalizeSkillName(part)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return strings.Join(out, ", ")
}

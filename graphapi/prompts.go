package graphapi

import "strings"

type promptRole int

const (
	roleUnknown promptRole = iota
	rolePositive
	roleNegative
)

var positiveTitleWords = []string{"positive"}

var negativeTitleWords = []string{"negative"}

// defectWords are quality/defect terms that mark an untitled prompt as
// negative when they appear in its body.
var defectWords = []string{
	"blurry", "low quality", "worst quality", "lowres", "bad anatomy",
	"bad hands", "deformed", "disfigured", "jpeg artifacts", "watermark",
	"ugly", "extra fingers", "extra limbs",
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// classifyPrompts assigns every text-bearing node a positive, negative or
// auxiliary role and merges the results into the descriptor set as text
// parameters. Title keywords win over body heuristics; nodes the heuristics
// cannot place fill whichever primary slot is still empty, first positive
// then negative, and overflow into their own uniquely-named parameters.
func classifyPrompts(g *Graph, set *ParameterSet, used map[string]bool) {
	type candidate struct {
		nodeID string
		input  string
		text   string
		title  string
		role   promptRole
	}

	cands := make([]candidate, 0)
	for _, id := range g.SortedIDs() {
		n := g.Nodes[id]
		input, ok := promptTextInputs[n.Type]
		if !ok {
			continue
		}
		raw, _ := inputValue(n, input)
		text, _ := raw.(string)

		title := strings.ToLower(n.Title)
		body := strings.ToLower(text)
		if runes := []rune(body); len(runes) > 200 {
			body = string(runes[:200])
		}

		role := roleUnknown
		pos := containsAny(title, positiveTitleWords)
		neg := containsAny(title, negativeTitleWords)
		switch {
		case pos && !neg:
			role = rolePositive
		case neg && !pos:
			role = roleNegative
		case containsAny(body, defectWords):
			role = roleNegative
		}
		cands = append(cands, candidate{id, input, text, n.Title, role})
	}

	var havePositive, haveNegative bool

	emit := func(c candidate, base, label string) {
		if c.title != "" {
			label = c.title
		}
		set.Parameters = append(set.Parameters, ParameterDescriptor{
			Name:    uniqueName(used, base, c.nodeID),
			Label:   label,
			Kind:    KindText,
			NodeID:  c.nodeID,
			Input:   c.input,
			Default: c.text,
		})
	}

	// explicit roles claim the primary slots first
	for _, c := range cands {
		switch c.role {
		case rolePositive:
			if !havePositive {
				havePositive = true
				emit(c, "positive_prompt", "Positive Prompt")
			} else {
				emit(c, "positive_prompt_"+c.nodeID, "Positive Prompt")
			}
		case roleNegative:
			if !haveNegative {
				haveNegative = true
				emit(c, "negative_prompt", "Negative Prompt")
			} else {
				emit(c, "negative_prompt_"+c.nodeID, "Negative Prompt")
			}
		}
	}

	// unknowns fill whatever is left, then become auxiliary parameters
	for _, c := range cands {
		if c.role != roleUnknown {
			continue
		}
		switch {
		case !havePositive:
			havePositive = true
			emit(c, "positive_prompt", "Positive Prompt")
		case !haveNegative:
			haveNegative = true
			emit(c, "negative_prompt", "Negative Prompt")
		default:
			emit(c, "prompt_"+c.nodeID, "Prompt "+c.nodeID)
		}
	}
}

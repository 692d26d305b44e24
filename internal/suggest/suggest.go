package suggest

import (
	"context"
	"strings"
	"text/template"
)

// promptTemplate is the fixed instruction shared by all suggestion backends.
var promptTemplate = template.Must(template.New("arrangement").Parse(
	`You are an expert travel planner specializing in suggesting optimal group arrangements for various places of visit.

Based on the number of people and the place of visit, suggest the most efficient and enjoyable group arrangement.

Number of People: {{.Members}}
Place of Visit: {{.Place}}

Respond with only a JSON object of the form {"groupArrangementSuggestion": "<your suggestion>"}.`))

// Suggester produces a free-text group arrangement suggestion.
type Suggester interface {
	Suggest(ctx context.Context, members int, place string) (string, error)
}

// Prompt renders the instruction template for members and place.
func Prompt(members int, place string) string {
	var b strings.Builder
	// Executing a parsed template with a struct of two plain fields cannot fail.
	_ = promptTemplate.Execute(&b, struct {
		Members int
		Place   string
	}{members, place})
	return b.String()
}

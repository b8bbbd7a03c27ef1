// Package widget maps dynamic component names from the content service onto
// the closed set of widgets the UI knows how to render. Anything outside the
// table falls back to a textual rendering.
package widget

import "strings"

// KindFallback is the rendering kind used when a component name cannot be
// resolved; the UI shows the widget's fallback text instead.
const KindFallback = "text-fallback"

// Descriptor describes one renderable widget kind.
type Descriptor struct {
	Kind  string
	Title string
}

// The closed registry. Wire names arrive in the service's PascalCase; lookup
// is case-insensitive on the normalized form.
var registry = map[string]Descriptor{
	"vocabgrid":       {Kind: "vocab-grid", Title: "Vocabulary"},
	"sentencecard":    {Kind: "sentence-card", Title: "Sentence Practice"},
	"dialogueplayer":  {Kind: "dialogue-player", Title: "Dialogue"},
	"clozequiz":       {Kind: "cloze-quiz", Title: "Fill in the Blanks"},
	"progresssummary": {Kind: "progress-summary", Title: "Progress"},
	"metriccard":      {Kind: "metric-card", Title: "Stats"},
}

// Resolve looks a component name up in the closed registry. The second
// return is false when the name is unknown and the caller should render the
// fallback text.
func Resolve(name string) (Descriptor, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(name, "-", ""), "_", ""))
	desc, ok := registry[key]
	return desc, ok
}

// Known returns every registered kind, for the UI capability handshake.
func Known() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	return out
}

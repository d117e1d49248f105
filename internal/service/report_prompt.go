package service

import (
	"context"
	"strings"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/liquid"
)

const reportSystemPrompt = `You are an experienced trainer evaluating a role-play between a trainee (User) and an AI avatar (Avatar).
Be specific, quote the transcript when useful and keep the tone constructive.
Always give numeric scores as "Aspect: NN" on their own line, NN being an integer from 0 to 100.`

// DefaultReportPromptTemplate is used when the settings carry no override.
// It receives scenario, aspects, transcript, conversations and emotions.
const DefaultReportPromptTemplate = `Scenario: {{ scenario.title }}
{% if scenario.description != "" %}Description: {{ scenario.description }}
{% endif %}{% if scenario.context != "" %}Avatar persona and context: {{ scenario.context }}
{% endif %}
Transcripts of {{ conversations }} conversation(s):
{{ transcript }}
{% if emotions.samples > 0 %}
Facial expressions of the trainee, averaged over {{ emotions.samples }} samples (0 to 1):
{% for e in emotions.averages %}- {{ e.name }}: {{ e.average }}
{% endfor %}Dominant emotion: {{ emotions.dominant }}
{% endif %}
{% if aspects.size > 0 %}Evaluate the trainee on these aspects:
{% for a in aspects %}- {{ a }}
{% endfor %}{% else %}Choose the aspects that matter most for this scenario and evaluate the trainee on them.
{% endif %}
For each aspect write "Aspect: NN" followed by a short justification.
Finish with "Overall: NN" and three concrete recommendations.`

// reportPrompt renders the user prompt of a report
type reportPrompt struct {
	renderer *liquid.Renderer
}

func (r reportPrompt) render(ctx context.Context, template string, scenario *domain.Scenario, conversations []*domain.Conversation) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultReportPromptTemplate
	}

	summary := domain.AverageEmotions(conversations)
	averages := make([]map[string]interface{}, 0, len(summary.Averages))
	for _, name := range summary.SortedEmotions() {
		averages = append(averages, map[string]interface{}{"name": name, "average": summary.Averages[name]})
	}

	aspects := make([]interface{}, 0, len(scenario.Aspects))
	for _, a := range scenario.Aspects {
		aspects = append(aspects, a)
	}

	data := map[string]interface{}{
		"scenario": map[string]interface{}{
			"id":          scenario.ID,
			"title":       scenario.Title,
			"description": scenario.Description,
			"context":     scenario.Context,
		},
		"aspects":       aspects,
		"transcript":    domain.BuildTranscript(conversations),
		"conversations": len(conversations),
		"emotions": map[string]interface{}{
			"samples":  summary.Samples,
			"dominant": summary.Dominant,
			"averages": averages,
		},
	}

	out, err := r.renderer.Render(ctx, template, data)
	if err != nil {
		return "", domain.NewValidationError("report prompt template: " + err.Error())
	}
	return strings.TrimSpace(out), nil
}

package coach

import (
	"fmt"
	"strings"

	"codeberg.org/fittrack/server/fittrack/users"
	"codeberg.org/fittrack/server/internal/admission"
)

const systemPrompt = `You are FitTrack Coach, a friendly and knowledgeable fitness assistant.
Give practical, safe advice grounded in exercise science and nutrition basics.
Keep answers concise and structured with short headings or bullet points.
Never diagnose medical conditions; suggest seeing a professional when symptoms sound serious.`

var kindInstructions = map[admission.Kind]string{
	admission.KindWorkoutPlan:      "Create a one-week workout plan with exercises, sets, reps and rest days.",
	admission.KindMealPlan:         "Create a one-day meal plan with meals, portions and approximate macros.",
	admission.KindSleepAnalysis:    "Review the user's sleep habits and suggest concrete improvements.",
	admission.KindGoalReview:       "Review the user's fitness goals and suggest measurable milestones.",
	admission.KindProgressAnalysis: "Assess the user's recent progress and suggest what to adjust next.",
	admission.KindGeneralQuestion:  "Answer the user's fitness question.",
}

// builds the user prompt for a kind, optional profile and optional question
func buildPrompt(kind admission.Kind, profile *users.Profile, question string) string {
	var b strings.Builder

	b.WriteString(kindInstructions[kind])

	if profile != nil {
		b.WriteString("\n\nAbout the user:")

		if profile.DisplayName != "" {
			fmt.Fprintf(&b, "\n- Name: %s", profile.DisplayName)
		}

		if profile.FitnessLevel != "" {
			fmt.Fprintf(&b, "\n- Fitness level: %s", profile.FitnessLevel)
		}

		if len(profile.Goals) > 0 {
			fmt.Fprintf(&b, "\n- Goals: %s", strings.Join(profile.Goals, ", "))
		}
	}

	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "\n\nUser question: %s", q)
	}

	return b.String()
}

package coach

// body of a coaching request
type CoachRequest struct {
	Kind           string `json:"kind"`
	Question       string `json:"question,omitempty"`
	IncludeContext bool   `json:"includeContext"`
}

// a successful coaching response
type CoachResponse struct {
	Response         string `json:"response"`
	Kind             string `json:"kind"`
	CreditsRemaining int    `json:"creditsRemaining"`
	DailyUsed        int    `json:"dailyUsed"`
	NextResetTime    string `json:"nextResetTime"`
	PlanID           string `json:"planId,omitempty"`
}

// 429 body for rate, hourly and daily denials
type LimitResponse struct {
	Error            string `json:"error"`
	Reason           string `json:"reason"`
	WaitTime         string `json:"waitTime,omitempty"`
	ResetTime        string `json:"resetTime,omitempty"`
	CreditsRemaining *int   `json:"creditsRemaining,omitempty"`
	DailyUsed        *int   `json:"dailyUsed,omitempty"`
}

// the caller's current credit balance
type CreditsResponse struct {
	CreditsRemaining int    `json:"creditsRemaining"`
	DailyUsed        int    `json:"dailyUsed"`
	HourlyLimit      int    `json:"hourlyLimit"`
	DailyLimit       int    `json:"dailyLimit"`
	NextResetTime    string `json:"nextResetTime"`
	DailyResetTime   string `json:"dailyResetTime"`
}

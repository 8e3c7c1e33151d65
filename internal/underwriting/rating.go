package underwriting

// Rating names the credit tier of a score.
func Rating(score int) string {
	switch {
	case score >= 800:
		return "Excellent"
	case score >= 750:
		return "Very Good"
	case score >= 700:
		return "Good"
	case score >= 650:
		return "Fair"
	}
	return "Poor"
}

// Factors summarises what drives a score, in the shape bureau reports use.
func Factors(score int) map[string]string {
	history, utilization := "Good", "Moderate"
	if score > 750 {
		history, utilization = "Excellent", "Low"
	}
	return map[string]string{
		"payment_history":    history,
		"credit_utilization": utilization,
		"credit_age":         "Good",
		"recent_inquiries":   "Low",
	}
}

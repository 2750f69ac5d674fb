package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength caps model output included in logs. Advisory text
// may quote user queries; the cap keeps that out of log aggregators.
const MaxLoggedResponseLength = 200

// TruncateForLogging trims a model response for safe log output.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var secretParamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`key=([^&"\s]+)`),
	regexp.MustCompile(`apiKey=([^&"\s]+)`),
	regexp.MustCompile(`api_key=([^&"\s]+)`),
	regexp.MustCompile(`token=([^&"\s]+)`),
	regexp.MustCompile(`access_token=([^&"\s]+)`),
}

// RedactURLSecrets removes API keys from URLs embedded in error messages.
// The Gemini endpoint carries its key as a query parameter, so a raw
// transport error would otherwise leak it.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, re := range secretParamPatterns {
		name := re.String()[:len(re.String())-len(`=([^&"\s]+)`)]
		result = re.ReplaceAllString(result, name+"=[REDACTED]")
	}
	return result
}

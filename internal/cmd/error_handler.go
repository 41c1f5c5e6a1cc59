package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/feats/ftg/internal/api"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *api.APIError
	var rateLimitErr *api.RateLimitError
	var authErr *api.AuthError

	switch {
	case errors.As(err, &rateLimitErr):
		msg.WriteString("Rate limit exceeded.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Wait a few seconds and retry\n")
		msg.WriteString("  - Lower --limit or narrow the chat selection\n")
		msg.WriteString("  - Tune FTG_RATE_LIMIT_DELAY for slower gateways\n")

	case errors.As(err, &authErr):
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", authErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: ftg auth login\n")
		msg.WriteString("  - Verify your session token is still valid\n")
		msg.WriteString("  - The gateway session may need re-authorization\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "Gateway error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErr.Body)
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode))
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check if the gateway is running\n")
		msg.WriteString("  - Verify the URL: ftg auth status\n")
		msg.WriteString("  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the gateway URL spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")
		msg.WriteString("  - Try using the IP address directly\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the gateway's SSL certificate\n")
		msg.WriteString("  - Check if the certificate is expired\n")
		msg.WriteString("  - Ensure you're using https:// correctly\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")

	case 401:
		suggestions.WriteString("  - Your session token may be invalid or expired\n")
		suggestions.WriteString("  - Run: ftg auth login\n")

	case 404:
		suggestions.WriteString("  - The chat or entity doesn't exist\n")
		suggestions.WriteString("  - Run 'ftg chats' to list available chats\n")
		suggestions.WriteString("  - The chat may have been deleted\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")
		suggestions.WriteString("  - Check the gateway logs if you run it yourself\n")

	default:
		suggestions.WriteString("  - Use --debug for request details\n")
	}

	return suggestions.String()
}

package cmd

import "github.com/slacknotify/slacknotify/internal/config"

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}

func yesNo(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}

func tokenHint(s string) string {
	if s == "" {
		return "(not configured)"
	}

	if len(s) > 10 {
		return s[:10] + "..."
	}

	return s
}

func repeatStr(s string, n int) string {
	var b string
	for i := 0; i < n; i++ {
		b += s
	}
	return b
}

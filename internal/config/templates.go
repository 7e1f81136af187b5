package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Journal Configuration

[api]
# Journal backend base URL
base_url = "http://localhost:8000"
# Endpoint that sets the CSRF cookie
csrf_path = "/sanctum/csrf-cookie"
# Cookie carrying the CSRF token and the header it is echoed into
csrf_cookie = "XSRF-TOKEN"
csrf_header = "X-XSRF-TOKEN"
# Request timeout (e.g. "30s"). "0s" keeps the HTTP client default (none).
timeout = "0s"

[journal]
# Location used to bucket trades into calendar days ("Local" = this machine)
timezone = "Local"
# Number of weeks shown by the heatmap (1-52)
heatmap_weeks = 6

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "Mon 02 Jan 2006"
# Currency symbol used for P&L
currency_symbol = "$"

[logging]
# debug, info, warn, error
level = "info"
# Write a rotating log file under the config directory
file = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

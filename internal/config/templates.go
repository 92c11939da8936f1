package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Nifty Agent Configuration

[analysis]
# RSI lookback period (5-50)
period = 14
# Overbought threshold (60-90)
overbought = 70
# Oversold threshold (10-40)
oversold = 30
# Trailing average applied to the RSI series (1-10, 1 = off)
smoothing = 1

[source]
# Candle source: "sim", "csv" or "sqlite"
kind = "sim"
# File path for csv and sqlite sources
path = ""
symbol = "NIFTY 50"
timeframe = "5min"
# Simulator seed, 0 picks a new seed every run
seed = 0
# Simulated candles per session
candles = 75

[refresh]
# Watch refresh interval
interval = "5s"
# Optional cron expression, overrides interval (e.g. "*/5 9-15 * * 1-5")
schedule = ""

[logging]
# debug, info, warn, error
level = "info"
console = false
file = true
# Defaults to ~/.config/nifty-agent/logs/agent.log
file_path = ""

[metrics]
# Serve Prometheus metrics while watching
enabled = false
addr = ":9102"

[ui]
# Enable colored output
color_enabled = true
# Time format for candle timestamps
time_format = "15:04"
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

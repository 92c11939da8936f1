// Command agent computes Nifty pivot levels and RSI signals from intraday
// candles.
package main

import (
	"context"
	"fmt"
	"os"

	"nifty-agent/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

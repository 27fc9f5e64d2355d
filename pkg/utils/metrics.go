package utils

import (
	"fmt"
	"math"

	"github.com/maestrohq/maestro/pkg/protocol"
)

// FormatResponseMetrics renders metrics as a single display line, e.g.
// "Time: 2 sec, Speed: 45 TPS, Input: 120 tokens, Output: 89 tokens".
// Estimated fields are marked with an asterisk.
func FormatResponseMetrics(metrics *protocol.ResponseMetrics) string {
	if metrics == nil {
		return ""
	}

	tokensPerSec := TokensPerSecond(metrics.OutputTokens, metrics.ResponseTime)

	var timeStr string
	if metrics.ResponseTime < 1 {
		timeStr = fmt.Sprintf("%.1f sec", metrics.ResponseTime)
	} else {
		timeStr = fmt.Sprintf("%d sec", int(math.Round(metrics.ResponseTime)))
	}

	var tpsStr string
	if tokensPerSec > 0 {
		if tokensPerSec >= 10 {
			tpsStr = fmt.Sprintf("%d TPS", int(tokensPerSec))
		} else {
			tpsStr = fmt.Sprintf("%g TPS", tokensPerSec)
		}
		// The rate is only as good as its inputs.
		if metrics.IsEstimated("output_tokens") || metrics.ResponseTime <= 0 {
			tpsStr += "*"
		}
	} else {
		tpsStr = "- TPS"
	}

	inputStr := fmt.Sprintf("%d tokens", metrics.InputTokens)
	if metrics.IsEstimated("input_tokens") {
		inputStr += "*"
	}

	outputStr := fmt.Sprintf("%d tokens", metrics.OutputTokens)
	if metrics.IsEstimated("output_tokens") {
		outputStr += "*"
	}

	formatted := fmt.Sprintf("Time: %s, Speed: %s, Input: %s, Output: %s",
		timeStr, tpsStr, inputStr, outputStr)

	if len(metrics.Estimated) > 0 {
		formatted += " (* = estimated)"
	}

	return formatted
}

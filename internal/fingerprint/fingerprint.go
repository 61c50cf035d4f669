// Package fingerprint shells out to an external WAF fingerprinting tool to
// pre-seed the scan command before the first run.
package fingerprint

import (
	"context"
	"os/exec"
	"strings"
)

// DefaultTool is the fingerprinting binary invoked against the target.
const DefaultTool = "wafw00f"

// Unknown is returned whenever fingerprinting is unavailable or fails.
const Unknown = "Unknown"

// Detect runs the fingerprinting tool against url and returns its raw stdout.
// Any failure (tool missing, non-zero exit, cancelled context) yields
// Unknown; fingerprinting is best-effort and never blocks a scan.
func Detect(ctx context.Context, tool, url string) string {
	if tool == "" {
		tool = DefaultTool
	}
	out, err := exec.CommandContext(ctx, tool, url).Output()
	if err != nil {
		return Unknown
	}
	return string(out)
}

// IsCloudflare reports whether a fingerprint result names Cloudflare.
func IsCloudflare(result string) bool {
	return strings.Contains(strings.ToLower(result), "cloudflare")
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow)
	successLabel = color.New(color.FgGreen)
)

// printJSON encodes v as indented JSON to stdout.
func printJSON(v any) error {
	return fprintJSON(os.Stdout, v)
}

// fprintJSON encodes v as indented JSON to w.
func fprintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// fprintStatus writes "<label> msg" with the label in c.
func fprintStatus(w io.Writer, c *color.Color, label, msg string) {
	fmt.Fprintf(w, "%s %s\n", c.Sprint(label), msg)
}

func printError(msg string) {
	fprintStatus(os.Stderr, errorLabel, "Error:", msg)
}

func printWarning(msg string) {
	fprintStatus(os.Stderr, warningLabel, "Warning:", msg)
}

func printSuccess(msg string) {
	fprintStatus(os.Stdout, successLabel, "✓", msg)
}

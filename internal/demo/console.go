package demo

import (
	"fmt"
	"io"
	"strings"
)

const ruleWidth = 70

// Rule prints a horizontal separator.
func Rule(out io.Writer) {
	fmt.Fprintln(out, strings.Repeat("=", ruleWidth))
}

// Section prints title between two rules.
func Section(out io.Writer, title string) {
	Rule(out)
	fmt.Fprintln(out, title)
	Rule(out)
}

// Instructions prints how to find service's traces in the Jaeger UI.
// Extra lines are appended as further numbered steps.
func Instructions(out io.Writer, uiURL, service string, extra ...string) {
	steps := []string{
		fmt.Sprintf("Open a web browser to: %s", uiURL),
		fmt.Sprintf("In the 'Service' dropdown, select: %s", service),
		"Click the 'Find Traces' button to view spans",
	}
	steps = append(steps, extra...)

	Rule(out)
	fmt.Fprintln(out, "VIEW TRACES IN JAEGER:")
	for i, step := range steps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
	Rule(out)
}

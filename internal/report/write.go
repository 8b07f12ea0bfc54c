package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatPlain = "plain"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// ValidFormat reports whether f is a known output format
func ValidFormat(f string) bool {
	switch f {
	case FormatPlain, FormatJSON, FormatYAML, FormatTable:
		return true
	}
	return false
}

// FormatMilliseconds renders a duration value the way the script prints it
func FormatMilliseconds(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

// Line is one printed measurement. Without labels it is just the number.
func Line(label string, ms float64, labels bool) string {
	if labels {
		return label + ": " + FormatMilliseconds(ms)
	}
	return FormatMilliseconds(ms)
}

// WriteJSON encodes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML encodes v as YAML
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteResultsTable renders timed results
func WriteResultsTable(w io.Writer, results []Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Benchmark", "Function", "Duration (ms)", "Started")

	for _, r := range results {
		table.Append(r.Label, r.Name, FormatMilliseconds(r.Milliseconds()), r.StartTime.Format("15:04:05.000"))
	}

	return table.Render()
}

// WriteSamplesTable renders suite samples
func WriteSamplesTable(w io.Writer, samples []Sample) error {
	table := tablewriter.NewWriter(w)
	table.Header("Benchmark", "Time/op", "Iterations", "Elapsed")

	for _, s := range samples {
		table.Append(s.Name, FormatNs(s.NsPerOp), strconv.Itoa(s.Iterations), s.Elapsed.String())
	}

	return table.Render()
}

// WriteEnvironmentTable renders a host snapshot
func WriteEnvironmentTable(w io.Writer, env *Environment) error {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	table.Append("CPU", env.CPUModel)
	table.Append("CPU Threads", strconv.Itoa(env.CPUThreads))
	table.Append("Memory", fmt.Sprintf("%.1f GiB", float64(env.MemoryTotal)/(1<<30)))
	table.Append("OS", env.OS)
	table.Append("Arch", env.Arch)
	table.Append("Go", env.GoVersion)

	return table.Render()
}

func trimFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}

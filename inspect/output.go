// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/croessner/luascope/luai"
	"github.com/croessner/luascope/util"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonQueryResult is the wire form of one query outcome.
type jsonQueryResult struct {
	Query  string `json:"query"`
	Kind   string `json:"kind,omitempty"`
	Value  any    `json:"value"`
	Length *int   `json:"length,omitempty"`
	Error  string `json:"error,omitempty"`
}

// jsonReport is the wire form of a whole inspection run.
type jsonReport struct {
	Script    string            `json:"script"`
	ElapsedMs float64           `json:"elapsed_ms"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Results   []jsonQueryResult `json:"results,omitempty"`
}

// buildReport maps evaluated queries onto the JSON wire form. Lua nil
// becomes JSON null; tables carry their length instead of a value.
func buildReport(scriptPath string, elapsed time.Duration, results []queryResult) jsonReport {
	report := jsonReport{
		Script:    scriptPath,
		ElapsedMs: float64(elapsed.Microseconds()) / 1000.0,
		Success:   true,
	}

	for _, result := range results {
		one := jsonQueryResult{Query: result.Query}

		if result.Err != nil {
			one.Error = result.Err.Error()
			report.Success = false
			report.Results = append(report.Results, one)

			continue
		}

		one.Kind = result.Kind.String()

		// Type probes answer the classification alone.
		if result.Probe {
			report.Results = append(report.Results, one)

			continue
		}

		switch result.Kind {
		case luai.KindTable:
			length := result.Length
			one.Length = &length
		case luai.KindInt:
			one.Value = result.Value.Int()
		case luai.KindNumber:
			one.Value = result.Value.Number()
		case luai.KindString:
			one.Value = result.Value.String()
		case luai.KindBool:
			one.Value = result.Value.Bool()
		}

		report.Results = append(report.Results, one)
	}

	return report
}

func printJSON(scriptPath string, elapsed time.Duration, results []queryResult) {
	_ = json.NewEncoder(os.Stdout).Encode(buildReport(scriptPath, elapsed, results))
}

func printHuman(scriptPath string, elapsed time.Duration, results []queryResult) {
	color.New(color.Bold).Printf("%s (%s)\n", scriptPath, util.FormatDurationMs(elapsed))

	pathColor := color.New(color.FgCyan)
	kindColor := color.New(color.FgYellow)
	errColor := color.New(color.FgRed)

	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("  %s: %s\n", pathColor.Sprint(result.Query), errColor.Sprint(result.Err.Error()))

			continue
		}

		switch {
		case result.Probe:
			fmt.Printf("  %s is %s\n", pathColor.Sprint(result.Query), kindColor.Sprint(result.Kind.String()))
		case result.Kind == luai.KindTable:
			fmt.Printf("  %s = table %s\n", pathColor.Sprint(result.Query), kindColor.Sprintf("(length %d)", result.Length))
		case result.Kind == luai.KindNil:
			fmt.Printf("  %s = nil\n", pathColor.Sprint(result.Query))
		case result.Kind == luai.KindOther:
			fmt.Printf("  %s = %s\n", pathColor.Sprint(result.Query), kindColor.Sprint(result.Kind.String()))
		default:
			fmt.Printf("  %s = %s %s\n", pathColor.Sprint(result.Query), formatScalar(result), kindColor.Sprintf("(%s)", result.Kind.String()))
		}
	}
}

// printError reports a compile or runtime failure in the selected output
// format.
func printError(settings *runSettings, err error) {
	if settings.jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(jsonReport{
			Script: settings.scriptPath,
			Error:  err.Error(),
		})

		return
	}

	color.New(color.FgRed).Fprintf(os.Stderr, "%s: %v\n", settings.scriptPath, err)
}

func formatScalar(result queryResult) string {
	if result.Kind == luai.KindString {
		return strconv.Quote(result.Value.String())
	}

	return result.Value.String()
}

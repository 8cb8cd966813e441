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
	"context"
	"fmt"
	stdlog "log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/croessner/luascope/config"
	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/errors"
	"github.com/croessner/luascope/log"
	"github.com/croessner/luascope/log/level"
	"github.com/croessner/luascope/lualib"
	"github.com/croessner/luascope/luapool"
	"github.com/croessner/luascope/stats"
	"github.com/croessner/luascope/util"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	version   = "dev"
	buildTime = ""
)

// runSettings collects everything one inspection run needs: the script, the
// queries evaluated against its globals and the output and pool setup.
type runSettings struct {
	scriptPath string
	queries    []query
	jsonOut    bool
	watch      time.Duration
	poolOpts   luapool.PoolOptions
}

func parseFlagsAndPrintVersion() {
	pflag.StringP("script", "s", "", "path to the Lua script to run")
	pflag.StringP("config", "c", "", "path to a configuration file with pool settings and named scripts")
	pflag.StringP("name", "n", "", "run the script declared under this name in the configuration file")
	pflag.StringArrayP("query", "q", nil, "typed lookup of the form PATH[:KIND] evaluated after the run, e.g. 'user.groups[1]:string'")
	pflag.BoolP("json", "j", false, "print results as JSON")
	pflag.DurationP("watch", "w", 0, "re-run the script on this interval until interrupted")
	pflag.BoolP("version", "V", false, "print version and exit")
	pflag.Parse()

	_ = viper.BindPFlags(pflag.CommandLine)

	if viper.GetBool("version") {
		fmt.Println("Version:", version, buildTime)
		os.Exit(0)
	}
}

// setupConfiguration loads the environment configuration and configures
// logging from it.
func setupConfiguration() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	config.SetEnvironment(cfg)

	log.SetupLogging(
		cfg.Verbosity.Level(),
		cfg.LogJSON,
		cfg.LogColor,
		cfg.LogColorTheme,
		cfg.InstanceName,
	)

	return nil
}

// resolveSettings merges command line flags with an optional configuration
// file into the settings of this run.
func resolveSettings() (*runSettings, error) {
	settings := &runSettings{
		scriptPath: viper.GetString("script"),
		jsonOut:    viper.GetBool("json"),
		watch:      viper.GetDuration("watch"),
		poolOpts:   luapool.OptionsFromEnvironment(),
	}

	if path := viper.GetString("config"); path != "" {
		fileSettings, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}

		if pool := fileSettings.Pool; pool != nil {
			settings.poolOpts.MaxStates = pool.GetMaxStates(settings.poolOpts.MaxStates)
			settings.poolOpts.ExtendedLibs = settings.poolOpts.ExtendedLibs || pool.ExtendedLibs
		}

		if name := viper.GetString("name"); name != "" {
			script := fileSettings.GetScript(name)
			if script == nil {
				return nil, fmt.Errorf("script %q is not declared in %s", name, path)
			}

			settings.scriptPath = script.ScriptPath
		}
	} else if viper.GetString("name") != "" {
		return nil, fmt.Errorf("--name requires --config")
	}

	if settings.scriptPath == "" {
		return nil, errors.ErrNoScriptSource
	}

	if settings.poolOpts.ExtendedLibs {
		settings.poolOpts.HTTPClient = &stdhttp.Client{Timeout: 30 * time.Second}
	}

	queries, err := parseQueries(viper.GetStringSlice("query"))
	if err != nil {
		return nil, err
	}

	settings.queries = queries

	return settings, nil
}

// run drives one-shot or watch mode and returns the process exit code.
func run(settings *runSettings) int {
	ctx, cancel := context.WithCancel(context.Background())

	defer cancel()

	if settings.watch <= 0 {
		// One-shot runs need no more than a single pooled state.
		settings.poolOpts.MaxStates = 1
	}

	manager := luapool.GetManager()

	pool, err := manager.GetOrCreate("inspect:default", settings.poolOpts)
	if err != nil {
		level.Error(log.Logger).Log(
			definitions.LogKeyError, err,
			definitions.LogKeyMsg, "cannot create interpreter pool",
		)

		return 1
	}

	defer manager.CloseAll()

	if settings.watch <= 0 {
		return runOnce(ctx, pool, settings)
	}

	go stats.MeasureCPU(ctx)

	sigs := make(chan os.Signal, 1)

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(settings.watch)

	defer ticker.Stop()

	exitCode := runOnce(ctx, pool, settings)

	for {
		select {
		case sig := <-sigs:
			level.Info(log.Logger).Log(
				definitions.LogKeyMsg, "shutting down",
				"signal", sig.String(),
			)

			return exitCode
		case <-ticker.C:
			exitCode = runOnce(ctx, pool, settings)

			if config.GetEnvironment().DevMode {
				stats.PrintStats()
			}
		}
	}
}

// runOnce executes the script in a pooled interpreter and evaluates the
// queries against the globals it left behind.
func runOnce(ctx context.Context, pool *luapool.Pool, settings *runSettings) int {
	cfg := config.GetEnvironment()

	acquireCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ScriptTimeout)*time.Second)

	defer cancel()

	ipr, err := pool.Acquire(acquireCtx)
	if err != nil {
		level.Error(log.Logger).Log(
			definitions.LogKeyError, err,
			definitions.LogKeyMsg, "cannot acquire interpreter",
		)

		return 1
	}

	defer pool.Release(ipr)

	started := time.Now()

	proto, err := lualib.CompileFileCached(settings.scriptPath)
	if err != nil {
		detailed := errors.ErrScriptCompile.WithGUID(ipr.GUID()).WithDetail(err.Error()).WithInstance(cfg.InstanceName)

		level.Error(log.Logger).Log(
			definitions.LogKeyGUID, ipr.GUID(),
			definitions.LogKeyScript, settings.scriptPath,
			definitions.LogKeyError, detailed,
			definitions.LogKeyErrorDetails, detailed.GetDetails(),
			definitions.LogKeyMsg, "script compilation failed",
		)

		printError(settings, err)

		return 1
	}

	if err = ipr.RunCompiled(proto); err != nil {
		detailed := errors.ErrScriptRun.WithGUID(ipr.GUID()).WithDetail(err.Error()).WithInstance(cfg.InstanceName)

		level.Error(log.Logger).Log(
			definitions.LogKeyGUID, ipr.GUID(),
			definitions.LogKeyScript, settings.scriptPath,
			definitions.LogKeyError, detailed,
			definitions.LogKeyErrorDetails, detailed.GetDetails(),
			definitions.LogKeyMsg, "script execution failed",
		)

		printError(settings, err)

		return 1
	}

	elapsed := time.Since(started)

	util.DebugModule(
		definitions.DbgInterp,
		definitions.LogKeyGUID, ipr.GUID(),
		definitions.LogKeyScript, settings.scriptPath,
		definitions.LogKeyLatency, util.FormatDurationMs(elapsed),
		definitions.LogKeyMsg, "script executed",
	)

	results := make([]queryResult, 0, len(settings.queries))
	failed := false

	for _, q := range settings.queries {
		result := evaluate(ipr, q)
		if result.Err != nil {
			failed = true
		}

		results = append(results, result)
	}

	if settings.jsonOut {
		printJSON(settings.scriptPath, elapsed, results)
	} else {
		printHuman(settings.scriptPath, elapsed, results)
	}

	if failed {
		return 1
	}

	return 0
}

func main() {
	parseFlagsAndPrintVersion()

	if err := setupConfiguration(); err != nil {
		stdlog.Fatalln("Unable to setup the environment. Error:", err)
	}

	settings, err := resolveSettings()
	if err != nil {
		stdlog.Fatalln("Unable to resolve the run settings. Error:", err)
	}

	os.Exit(run(settings))
}

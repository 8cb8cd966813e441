package config

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	environmentMu sync.Mutex

	// environment holds the process-wide configuration created from
	// environment variables. Access it through GetEnvironment.
	environment *Config
)

// Verbosity is a type that represents the verbosity details.
type Verbosity struct {
	// verboseLevel holds the level of detail for logging
	verboseLevel int

	// name is the name of the verbosity level
	name string
}

var verbosityLevels = map[string]int{
	"":      definitions.LogLevelNone,
	"none":  definitions.LogLevelNone,
	"error": definitions.LogLevelError,
	"warn":  definitions.LogLevelWarn,
	"info":  definitions.LogLevelInfo,
	"debug": definitions.LogLevelDebug,
}

func (v *Verbosity) String() string {
	return v.name
}

// Set updates the verbosity level and name based on the provided value.
// Valid values are "none", "error", "warn", "info" and "debug"; anything else
// yields ErrWrongVerboseLevel.
func (v *Verbosity) Set(value string) error {
	level, ok := verbosityLevels[value]
	if !ok {
		return errors.ErrWrongVerboseLevel
	}

	v.verboseLevel = level
	v.name = value

	return nil
}

// Type returns the type of the Verbosity struct.
func (v *Verbosity) Type() string {
	return "Verbosity"
}

// Level returns the verbosity level of the Verbosity instance.
func (v *Verbosity) Level() int {
	return v.verboseLevel
}

// Get returns the name of the log level as string.
func (v *Verbosity) Get() string {
	return v.name
}

// DbgModule represents a debugging module configuration.
type DbgModule struct {
	name   string
	module definitions.DbgModule
}

var debugModules = map[string]definitions.DbgModule{
	"":                         definitions.DbgNone,
	definitions.DbgNoneName:    definitions.DbgNone,
	definitions.DbgAllName:     definitions.DbgAll,
	definitions.DbgInterpName:  definitions.DbgInterp,
	definitions.DbgStackName:   definitions.DbgStack,
	definitions.DbgConvertName: definitions.DbgConvert,
	definitions.DbgCompileName: definitions.DbgCompile,
	definitions.DbgCacheName:   definitions.DbgCache,
	definitions.DbgPoolName:    definitions.DbgPool,
	definitions.DbgStatsName:   definitions.DbgStats,
}

func (d *DbgModule) String() string {
	return d.name
}

// Set updates the debug module based on the provided value. Valid values are
// the module names from the definitions package; anything else yields
// ErrWrongDebugModule.
func (d *DbgModule) Set(value string) error {
	module, ok := debugModules[value]
	if !ok {
		return errors.ErrWrongDebugModule
	}

	d.module = module
	d.name = value

	return nil
}

// Type returns the type of the DbgModule, which is always "DebugModule".
func (d *DbgModule) Type() string {
	return "DebugModule"
}

// Get returns the name of the DbgModule instance.
func (d *DbgModule) Get() string {
	return d.name
}

// GetModule returns the module identifier of the DbgModule instance.
func (d *DbgModule) GetModule() definitions.DbgModule {
	return d.module
}

// Config represents overall configuration settings for the application.
type Config struct {

	// InstanceName is the name of the current instance as it appears in logs.
	InstanceName string `validate:"required,printascii,excludesall= "`

	// LogJSON is a flag indicating whether the logs should be in JSON format.
	LogJSON bool

	// LogColor enables ANSI colored log lines when LogJSON is off.
	LogColor bool

	// LogColorTheme selects the color mapping, either "dark" or "light".
	LogColorTheme string `validate:"omitempty,oneof=dark light"`

	// Verbosity is a value to set the logging severity level.
	Verbosity

	// DbgModule contains configurations for debugging modules.
	DbgModule []*DbgModule

	// DevMode indicates whether the application is running in developer mode.
	DevMode bool

	// LuaRegistrySize is the initial registry size for new Lua states.
	LuaRegistrySize int `validate:"gte=16"`

	// LuaRegistryMaxSize is the upper bound the registry may grow to.
	LuaRegistryMaxSize int `validate:"omitempty,gte=0"`

	// LuaCallStackSize is the call stack size for new Lua states.
	LuaCallStackSize int `validate:"gte=8"`

	// PoolMaxStates is the maximum number of interpreters a bounded pool holds.
	PoolMaxStates uint16 `validate:"gte=1"`

	// ScriptTimeout is the time in seconds a chunk may run before its context expires.
	ScriptTimeout uint `validate:"gte=1"`

	// ExtendedLibs enables preloading of the extended Lua module set.
	ExtendedLibs bool

	// ChunkCacheTTL is the time in seconds a compiled chunk stays cached.
	ChunkCacheTTL uint `validate:"gte=1"`
}

// setDefaultEnvVars sets the default environment variables for the
// application. The default values are taken from the definitions package.
func setDefaultEnvVars() {
	viper.SetEnvPrefix("luascope")

	viper.SetDefault("instance_name", definitions.InstanceName)
	viper.SetDefault("log_format_json", false)
	viper.SetDefault("log_color", false)
	viper.SetDefault("log_color_theme", "light")
	viper.SetDefault("verbose_level", "info")
	viper.SetDefault("log_debug_modules", []*DbgModule{
		{definitions.DbgInterpName, definitions.DbgInterp},
		{definitions.DbgStatsName, definitions.DbgStats},
	})
	viper.SetDefault("developer_mode", false)
	viper.SetDefault("lua_registry_size", definitions.LuaRegistrySize)
	viper.SetDefault("lua_registry_max_size", definitions.LuaRegistryMaxSize)
	viper.SetDefault("lua_call_stack_size", definitions.LuaCallStackSize)
	viper.SetDefault("lua_pool_max_states", definitions.LuaPoolMaxStates)
	viper.SetDefault("lua_script_timeout", definitions.LuaMaxExecutionTime)
	viper.SetDefault("extended_libraries", false)
	viper.SetDefault("chunk_cache_ttl", definitions.ChunkCacheTTL)

	viper.AllowEmptyEnv(true)
	viper.AutomaticEnv()
}

// String returns the configuration as a flat field list.
func (c *Config) String() string {
	var result string

	value := reflect.ValueOf(*c)
	typeOfValue := value.Type()

	for index := 0; index < value.NumField(); index++ {
		result += fmt.Sprintf(" %s='%v'", typeOfValue.Field(index).Name, value.Field(index).Interface())
	}

	return result[1:]
}

// setConfigFromEnvVars sets the configuration values from environment
// variables using Viper.
func (c *Config) setConfigFromEnvVars() {
	c.InstanceName = viper.GetString("instance_name")
	c.LogJSON = viper.GetBool("log_format_json")
	c.LogColor = viper.GetBool("log_color")
	c.LogColorTheme = viper.GetString("log_color_theme")
	c.DevMode = viper.GetBool("developer_mode")
	c.LuaRegistrySize = viper.GetInt("lua_registry_size")
	c.LuaRegistryMaxSize = viper.GetInt("lua_registry_max_size")
	c.LuaCallStackSize = viper.GetInt("lua_call_stack_size")
	c.ExtendedLibs = viper.GetBool("extended_libraries")
}

// setConfigPoolMaxStates sets the PoolMaxStates field, clamped to uint16.
func (c *Config) setConfigPoolMaxStates() {
	if val := viper.GetUint("lua_pool_max_states"); val > 1 {
		if val < math.MaxUint16 {
			c.PoolMaxStates = uint16(val)
		} else {
			c.PoolMaxStates = math.MaxUint16
		}
	} else {
		c.PoolMaxStates = 1
	}
}

// setConfigScriptTimeout sets the chunk execution timeout with a floor of one second.
func (c *Config) setConfigScriptTimeout() {
	if val := viper.GetUint("lua_script_timeout"); val > 1 {
		c.ScriptTimeout = val
	} else {
		c.ScriptTimeout = 1
	}
}

// setConfigChunkCacheTTL sets the compiled chunk cache lifetime with a floor of one second.
func (c *Config) setConfigChunkCacheTTL() {
	if val := viper.GetUint("chunk_cache_ttl"); val > 1 {
		c.ChunkCacheTTL = val
	} else {
		c.ChunkCacheTTL = 1
	}
}

// setConfigVerboseLevel sets the verbose level from the 'verbose_level'
// environment variable.
func (c *Config) setConfigVerboseLevel() error {
	verbosity, assertOk := viper.Get("verbose_level").(string)
	if !assertOk {
		return errors.ErrWrongVerboseLevel
	}

	if err := c.Verbosity.Set(verbosity); err != nil {
		return err
	}

	return nil
}

// setConfigLogDebugModules sets the debug modules for logging. The value may
// be a space separated module list or a prepared []*DbgModule default.
func (c *Config) setConfigLogDebugModules() error {
	dbgModulesI := viper.Get("log_debug_modules")
	switch dbgModules := dbgModulesI.(type) {
	case string:
		for _, dbgModule := range strings.Fields(dbgModules) {
			module := &DbgModule{}

			if err := module.Set(dbgModule); err != nil {
				return err
			}

			c.DbgModule = append(c.DbgModule, module)
		}
	case []*DbgModule:
		c.DbgModule = dbgModules
	}

	return nil
}

// setConfig initializes the configuration options that cannot fail.
func (c *Config) setConfig() {
	c.setConfigPoolMaxStates()
	c.setConfigScriptTimeout()
	c.setConfigChunkCacheTTL()
}

// setConfigWithError sets the configuration options that may reject their input.
func (c *Config) setConfigWithError() error {
	if err := c.setConfigVerboseLevel(); err != nil {
		return err
	}

	if err := c.setConfigLogDebugModules(); err != nil {
		return err
	}

	return nil
}

// HasDebugModule checks if the given module is enabled for debug logging.
func (c *Config) HasDebugModule(module definitions.DbgModule) bool {
	if c == nil {
		return false
	}

	for _, dbg := range c.DbgModule {
		if dbg.GetModule() == definitions.DbgAll || dbg.GetModule() == module {
			return true
		}
	}

	return false
}

// Validate checks the semantic bounds of the configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	return validate.Struct(c)
}

// NewConfig initializes a new Config struct and sets its values based on
// environment variables.
func NewConfig() (*Config, error) {
	setDefaultEnvVars()

	newCfg := &Config{}

	newCfg.setConfigFromEnvVars()
	newCfg.setConfig()

	if err := newCfg.setConfigWithError(); err != nil {
		return nil, err
	}

	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	return newCfg, nil
}

// newDefaultConfig builds a configuration from compiled-in defaults without
// touching the process environment.
func newDefaultConfig() *Config {
	cfg := &Config{
		InstanceName:       definitions.InstanceName,
		LogColorTheme:      "light",
		LuaRegistrySize:    definitions.LuaRegistrySize,
		LuaRegistryMaxSize: definitions.LuaRegistryMaxSize,
		LuaCallStackSize:   definitions.LuaCallStackSize,
		PoolMaxStates:      definitions.LuaPoolMaxStates,
		ScriptTimeout:      definitions.LuaMaxExecutionTime,
		ChunkCacheTTL:      definitions.ChunkCacheTTL,
	}

	_ = cfg.Verbosity.Set("info")

	return cfg
}

// GetEnvironment returns the process-wide configuration, loading it from the
// environment on first use. Invalid environment values fall back to the
// compiled-in defaults so that library consumers keep working.
func GetEnvironment() *Config {
	environmentMu.Lock()

	defer environmentMu.Unlock()

	if environment == nil {
		cfg, err := NewConfig()
		if err != nil {
			cfg = newDefaultConfig()
		}

		environment = cfg
	}

	return environment
}

// SetEnvironment replaces the process-wide configuration. It is meant to be
// called once during startup after NewConfig.
func SetEnvironment(cfg *Config) {
	environmentMu.Lock()

	defer environmentMu.Unlock()

	environment = cfg
}

// SetTestEnvironment swaps the process-wide configuration and returns the
// previous one so tests can restore it.
func SetTestEnvironment(cfg *Config) *Config {
	environmentMu.Lock()

	defer environmentMu.Unlock()

	previous := environment
	environment = cfg

	return previous
}

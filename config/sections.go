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

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// PoolSection configures the bounded interpreter pool.
type PoolSection struct {
	MaxStates    int  `mapstructure:"max_states" validate:"omitempty,gte=1,lte=4096"`
	ExtendedLibs bool `mapstructure:"extended_libraries"`
}

func (p *PoolSection) String() string {
	if p == nil {
		return "PoolSection: <nil>"
	}

	return fmt.Sprintf("PoolSection: {MaxStates[%d] ExtendedLibs[%v]}", p.MaxStates, p.ExtendedLibs)
}

// GetMaxStates returns the configured pool size or def when unset.
func (p *PoolSection) GetMaxStates(def int) int {
	if p == nil || p.MaxStates == 0 {
		return def
	}

	return p.MaxStates
}

// ScriptSection declares one named script that can be run by the inspect tool.
type ScriptSection struct {
	Name       string `mapstructure:"name" validate:"required,printascii,excludesall= "`
	ScriptPath string `mapstructure:"script_path" validate:"required,file"`
}

func (s *ScriptSection) String() string {
	if s == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{Name: %s}, {ScriptPath: %s}", s.Name, s.ScriptPath)
}

// FileSettings is the root of an optional configuration file.
type FileSettings struct {
	Pool    *PoolSection    `mapstructure:"pool" validate:"omitempty"`
	Scripts []ScriptSection `mapstructure:"scripts" validate:"omitempty,dive"`
}

// GetScript returns the script declared under the given name, or nil.
func (f *FileSettings) GetScript(name string) *ScriptSection {
	if f == nil {
		return nil
	}

	for index := range f.Scripts {
		if f.Scripts[index].Name == name {
			return &f.Scripts[index]
		}
	}

	return nil
}

// LoadFile reads, unmarshals and validates a configuration file. The format
// is detected from the file extension (viper supports YAML, TOML and JSON
// among others).
func LoadFile(path string) (*FileSettings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	settings := &FileSettings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

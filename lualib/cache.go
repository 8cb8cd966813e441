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

package lualib

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/croessner/luascope/config"
	"github.com/croessner/luascope/localcache"
	"github.com/croessner/luascope/stats"

	lua "github.com/yuin/gopher-lua"
)

// CompileFileCached compiles filePath like CompileFile, but keeps the proto
// in the local cache so pooled interpreters re-run scripts without paying
// for compilation. Entries are keyed by absolute path and modification
// time, so an edited file compiles fresh while the stale entry ages out.
// The cache TTL comes from the environment configuration.
func CompileFileCached(filePath string) (*lua.FunctionProto, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	key := chunkCacheKey(absPath, info.ModTime())
	if cached, found := localcache.LocalCache.Get(key); found {
		if proto, ok := cached.(*lua.FunctionProto); ok {
			stats.ChunkCacheHits.Inc()

			return proto, nil
		}
	}

	stats.ChunkCacheMisses.Inc()

	proto, err := CompileFile(absPath)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(config.GetEnvironment().ChunkCacheTTL) * time.Second

	localcache.LocalCache.Set(key, proto, ttl)

	return proto, nil
}

func chunkCacheKey(path string, modTime time.Time) string {
	return "chunk:" + path + ":" + strconv.FormatInt(modTime.UnixNano(), 10)
}

package definitions

import "testing"

func TestDbgModule_String(t *testing.T) {
	tests := []struct {
		name string
		d    DbgModule
		want string
	}{
		{name: "none", d: DbgNone, want: DbgNoneName},
		{name: "all", d: DbgAll, want: DbgAllName},
		{name: "interp", d: DbgInterp, want: DbgInterpName},
		{name: "stack", d: DbgStack, want: DbgStackName},
		{name: "convert", d: DbgConvert, want: DbgConvertName},
		{name: "compile", d: DbgCompile, want: DbgCompileName},
		{name: "cache", d: DbgCache, want: DbgCacheName},
		{name: "pool", d: DbgPool, want: DbgPoolName},
		{name: "statistics", d: DbgStats, want: DbgStatsName},
		{name: "unknown", d: DbgModule(255), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Fatalf("DbgModule(%d).String() = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

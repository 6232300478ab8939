package sysutil

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	for in, want := range map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"":          zerolog.InfoLevel,
		"warning":   zerolog.WarnLevel,
		"WARN":      zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"verbose":   zerolog.InfoLevel,
	} {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		SetLogLevel(in)
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("SetLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// AUTO_MIGRATE is parsed with IsTruthy.
func TestIsTruthy_EnvFlagValues(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"1", true},
		{" yes ", true},
		{"On", true},
		{"Y", true},
		{"TRUE", true},
		{"0", false},
		{"off", false},
		{"", false},
		{"enabled", false},
	}
	for _, tt := range tests {
		t.Setenv("AUTO_MIGRATE", tt.env)
		if got := IsTruthy(os.Getenv("AUTO_MIGRATE")); got != tt.want {
			t.Fatalf("AUTO_MIGRATE=%q: IsTruthy = %v, want %v", tt.env, got, tt.want)
		}
	}
}

// The --db flag wins over DB_PATH, which wins over nothing.
func TestFirstNonEmpty_FlagPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		flag, cfg string
		want      string
	}{
		{"flag set", "/tmp/flag.db", "data/rehab.db", "/tmp/flag.db"},
		{"blank flag", "  ", "data/rehab.db", "data/rehab.db"},
		{"neither", "", "", ""},
		{"keeps spacing", "", " odd.db ", " odd.db "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstNonEmpty(tt.flag, tt.cfg); got != tt.want {
				t.Fatalf("FirstNonEmpty(%q, %q) = %q, want %q", tt.flag, tt.cfg, got, tt.want)
			}
		})
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q", got)
	}
}

func TestSetupLogger_InstallsGlobalAndContextDefault(t *testing.T) {
	origLevel := zerolog.GlobalLevel()
	origLogger := log.Logger
	origCtx := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLogger
		zerolog.DefaultContextLogger = origCtx
	})

	l := SetupLogger("error", false, "rehab-test")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Fatalf("level = %v", zerolog.GlobalLevel())
	}
	if zerolog.DefaultContextLogger == nil {
		t.Fatalf("context default not installed")
	}
	if got := log.Ctx(context.Background()); got.GetLevel() != l.GetLevel() {
		t.Fatalf("log.Ctx on bare context must use the installed logger")
	}
}

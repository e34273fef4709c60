package testsupport

import (
	"path/filepath"
	"testing"

	"menucast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing is disabled and each backend call gets a single attempt so tests
// never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.MiniMax.APIKey = "test"
	cfgVal.MiniMax.BaseURL = "http://127.0.0.1:0"
	cfgVal.MiniMax.RateLimitRPM = 0
	cfgVal.MiniMax.MaxRetries = 1
	cfgVal.MiniMax.TimeoutSeconds = 5
	cfgVal.MiniMax.VideoPollIntervalSeconds = 1
	cfgVal.MiniMax.VideoTimeoutSeconds = 5
	cfgVal.Paths.BuildDir = filepath.Join(base, "build")
	cfgVal.Paths.MenuDir = filepath.Join(base, "menu")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Backup.Dir = filepath.Join(base, "backups")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend points the generative client at a fake backend.
func WithBackend(backend *FakeBackend) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MiniMax.BaseURL = backend.URL()
	}
}

// WithMenu writes a menu document into the menu directory.
func WithMenu(name, body string) ConfigOption {
	return func(b *configBuilder) {
		WriteText(b.t, filepath.Join(b.cfg.Paths.MenuDir, name), body)
	}
}

// WithSourceImages writes placeholder source photos into the data directory.
func WithSourceImages(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.DataDir, name), 2048)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.BuildDir)
}

// SampleMenu is a small two-course menu used across package tests.
const SampleMenu = `
course: mains
sections:
  - name: Pasta
    items:
      - slug: shrimp-scampi
        name: Shrimp Scampi
        description: Garlic butter shrimp over linguine.
        ingredients: [Shrimp, Butter, Linguine]
      - slug: chicken-marsala
        name: Chicken Marsala
        description: Pan-seared chicken in a marsala mushroom sauce.
        ingredients: [Chicken, Mushrooms, Flour]
  - name: Dolci
    items:
      - slug: tiramisu
        name: Tiramisu
        description: Espresso-soaked ladyfingers with mascarpone.
        ingredients: [Egg, Mascarpone, Espresso]
`

// WithSampleMenu writes SampleMenu as menu/mains.yaml.
func WithSampleMenu() ConfigOption {
	return WithMenu("mains.yaml", SampleMenu)
}

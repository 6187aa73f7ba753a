package app

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"TrendingPress/internal/compose"
	"TrendingPress/internal/config"
	"TrendingPress/internal/domain"
	"TrendingPress/internal/logging"
)

func TestBuildPublishersSkipsUnconfigured(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate func(*config.PublishersConfig)
		want   []domain.Platform
	}{
		"none": {
			mutate: func(*config.PublishersConfig) {},
			want:   nil,
		},
		"telegram without chat": {
			mutate: func(p *config.PublishersConfig) { p.Telegram.BotToken = "tok" },
			want:   nil,
		},
		"telegram and medium": {
			mutate: func(p *config.PublishersConfig) {
				p.Telegram.BotToken = "tok"
				p.Telegram.ChatID = "-100123"
				p.Medium.Token = "med"
			},
			want: []domain.Platform{domain.PlatformTelegram, domain.PlatformMedium},
		},
		"all": {
			mutate: func(p *config.PublishersConfig) {
				p.Telegram.BotToken = "tok"
				p.Telegram.ChatID = "-100123"
				p.DevTo.APIKey = "dev"
				p.Medium.Token = "med"
			},
			want: []domain.Platform{domain.PlatformTelegram, domain.PlatformDevTo, domain.PlatformMedium},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.LoadFrom("")
			cfg.Publishers.Telegram.BotToken = ""
			cfg.Publishers.Telegram.ChatID = ""
			cfg.Publishers.DevTo.APIKey = ""
			cfg.Publishers.Medium.Token = ""
			tc.mutate(&cfg.Publishers)

			a := &Application{cfg: cfg, logger: logging.Discard()}
			registry := a.buildPublishers(http.DefaultClient)

			if tc.want == nil {
				assert.Zero(t, registry.Len())
				return
			}
			assert.Equal(t, tc.want, registry.Platforms())
		})
	}
}

func TestBuildComposerWithoutKeyUsesTemplate(t *testing.T) {
	t.Parallel()

	cfg := config.LoadFrom("")
	cfg.ChatGPT.APIKey = ""
	composer := buildComposer(cfg.ChatGPT, logging.Discard())

	gen := composer.Generate(t.Context(), compose.Input{ID: "acme/widget", StarsTotal: 10})
	assert.ErrorIs(t, gen.Err, domain.ErrMissingConfig)
}

func TestBuildFontLoaderFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "card.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o600))

	fonts, err := buildFontLoader(config.CardConfig{FontFile: path}, nil)
	require.NoError(t, err)

	font, err := fonts.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, goregular.TTF, font.Data)
	assert.NotEmpty(t, font.Family)
}

func TestBuildFontLoaderRejectsBadFile(t *testing.T) {
	t.Parallel()

	_, err := buildFontLoader(config.CardConfig{FontFile: filepath.Join(t.TempDir(), "missing.ttf")}, nil)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0o600))
	_, err = buildFontLoader(config.CardConfig{FontFile: path}, nil)
	require.Error(t, err)
}

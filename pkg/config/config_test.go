package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/config"
)

var _ = Describe("Config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "relay-config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewDefaultConfig", func() {
		It("populates every field", func() {
			cfg := config.NewDefaultConfig()

			Expect(cfg.Provider.BaseURL).To(Equal("https://api.openai.com/v1"))
			Expect(cfg.Provider.APIKeyEnv).To(Equal("OPENAI_API_KEY"))
			Expect(cfg.Provider.Model).NotTo(BeEmpty())
			Expect(cfg.Stream.IdleTimeoutMs).To(BeEquivalentTo(300_000))
			Expect(cfg.Stream.ChannelCapacity).To(BeEquivalentTo(1600))
			Expect(cfg.Stream.ReadBufferSize).To(BeEquivalentTo(8192))
		})
	})

	Describe("ParseConfigTOML", func() {
		It("parses a full config", func() {
			cfg, err := config.ParseConfigTOML([]byte(`
version = 0

[provider]
base_url = "http://localhost:11434/v1"
model = "llama3.2"

[stream]
idle_timeout_ms = 60000
`))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Provider.BaseURL).To(Equal("http://localhost:11434/v1"))
			Expect(cfg.Provider.Model).To(Equal("llama3.2"))
			Expect(cfg.Stream.IdleTimeoutMs).To(BeEquivalentTo(60000))
		})

		It("rejects unsupported versions", func() {
			_, err := config.ParseConfigTOML([]byte("version = 99\n"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})

		It("rejects malformed TOML", func() {
			_, err := config.ParseConfigTOML([]byte("[provider\n"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Configer", func() {
		It("returns defaults when no config file exists", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("fills unset fields with defaults when loading a partial file", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte("[provider]\nmodel = \"llama3.2\"\n"), 0o600)).To(Succeed())

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Provider.Model).To(Equal("llama3.2"))
			Expect(cfg.Provider.BaseURL).To(Equal("https://api.openai.com/v1"))
			Expect(cfg.Stream.ChannelCapacity).To(BeEquivalentTo(1600))
		})

		It("round-trips values through SetConfigValue and GetConfigValue", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfger.SetConfigValue("provider.model", "gpt-4o")).To(Succeed())
			Expect(cfger.SetConfigValue("stream.channel_capacity", "64")).To(Succeed())

			model, err := cfger.GetConfigValue("provider.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(Equal("gpt-4o"))

			capacity, err := cfger.GetConfigValue("stream.channel_capacity")
			Expect(err).NotTo(HaveOccurred())
			Expect(capacity).To(Equal("64"))
		})

		It("rejects unknown keys", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfger.SetConfigValue("provider.nope", "x")).NotTo(Succeed())
			_, err = cfger.GetConfigValue("provider.nope")
			Expect(err).To(HaveOccurred())
		})

		It("rejects non-integer values for integer keys", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfger.SetConfigValue("stream.idle_timeout_ms", "soon")).NotTo(Succeed())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("lists every supported key", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"provider.base_url",
				"provider.api_key_env",
				"provider.model",
				"stream.idle_timeout_ms",
				"stream.channel_capacity",
				"stream.read_buffer_size",
			))
			for _, k := range keys {
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
		})
	})

	Describe("InitViper", func() {
		It("applies defaults, file values and env overrides in order", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte("[provider]\nmodel = \"from-file\"\n"), 0o600)).To(Succeed())

			Expect(os.Setenv("RELAY_PROVIDER_BASE_URL", "http://env-wins:1234/v1")).To(Succeed())
			DeferCleanup(func() { os.Unsetenv("RELAY_PROVIDER_BASE_URL") })

			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			// env > file > default
			Expect(v.GetString("provider.base_url")).To(Equal("http://env-wins:1234/v1"))
			Expect(v.GetString("provider.model")).To(Equal("from-file"))
			Expect(v.GetUint("stream.channel_capacity")).To(BeEquivalentTo(1600))
		})
	})
})

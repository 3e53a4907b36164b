package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PathsConfig locates the pipeline's inputs and outputs.
type PathsConfig struct {
	CatalogCSV string `yaml:"catalog_csv" validate:"required"`
	TextDir    string `yaml:"text_dir" validate:"required"`
	OutputJSON string `yaml:"output_json" validate:"required"`
	CleanJSON  string `yaml:"clean_json"`
}

// CatalogConfig holds the language, genre and author rules applied to the metadata catalog.
type CatalogConfig struct {
	Languages       []string `yaml:"languages" validate:"min=1"`
	Genres          []string `yaml:"genres" validate:"min=1"`
	ExcludedAuthors []string `yaml:"excluded_authors"`
	Limit           int      `yaml:"limit" validate:"gte=0"`
}

// VectorizerConfig selects and configures the document vectorizer.
type VectorizerConfig struct {
	Type        string `yaml:"type" validate:"oneof=hashed wordvec tfidf"`
	MaxChars    int    `yaml:"max_chars" validate:"gt=0"`
	Dimension   int    `yaml:"dimension" validate:"gte=0"`
	VectorsPath string `yaml:"vectors_path" validate:"required_if=Type wordvec"`
}

// ReducerConfig configures the t-SNE projection.
type ReducerConfig struct {
	Perplexity        float64 `yaml:"perplexity" validate:"gt=0"`
	Iterations        int     `yaml:"iterations" validate:"gte=250"`
	LearningRate      float64 `yaml:"learning_rate" validate:"gt=0"`
	EarlyExaggeration float64 `yaml:"early_exaggeration" validate:"gte=1"`
	Metric            string  `yaml:"metric" validate:"oneof=euclidean cosine"`
	Init              string  `yaml:"init" validate:"oneof=pca random"`
	Seed              uint64  `yaml:"seed"`
	AdaptPerplexity   bool    `yaml:"adapt_perplexity"`
}

// CorpusConfig selects the identity key of matrix rows.
type CorpusConfig struct {
	Key string `yaml:"key" validate:"oneof=id title"`
}

// OutputConfig controls the primary output file.
type OutputConfig struct {
	IncludeVectors bool `yaml:"include_vectors"`
}

// LogConfig controls log level and format.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Paths      PathsConfig      `yaml:"paths"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Reducer    ReducerConfig    `yaml:"reducer"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/bookmap/config.yaml.
// If neither exists, it writes defaults to ~/.config/bookmap/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks struct-level constraints.
func Validate(cfg *AppConfig) error {
	return validator.New().Struct(cfg)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bookmap", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		Paths: PathsConfig{
			CatalogCSV: "data/filtered_data/filtered_metadata.csv",
			TextDir:    "data/filtered_data/data/text",
			OutputJSON: "data/filtered_data/book_vectors.json",
			CleanJSON:  "data/filtered_data/book_vectors_no_vector.json",
		},
		Catalog: CatalogConfig{
			Languages: []string{"en"},
			Genres: []string{
				"Science fiction", "Fantasy", "Juvenile fiction", "Mystery fiction",
				"Historical fiction", "Humor", "Western", "Adventure", "Short stories",
			},
			ExcludedAuthors: []string{"Various", "Anonymous", "Unknown"},
		},
		Vectorizer: VectorizerConfig{Type: "hashed", MaxChars: 2000000, Dimension: 300},
		Reducer: ReducerConfig{
			Perplexity:        5,
			Iterations:        1000,
			LearningRate:      200,
			EarlyExaggeration: 12,
			Metric:            "euclidean",
			Init:              "pca",
			Seed:              42,
		},
		Corpus: CorpusConfig{Key: "id"},
		Output: OutputConfig{IncludeVectors: true},
		Log:    LogConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Vectorizer.Type == "" {
		cfg.Vectorizer.Type = "hashed"
	}
	if cfg.Vectorizer.Type == "hashed" && cfg.Vectorizer.Dimension == 0 {
		cfg.Vectorizer.Dimension = 300
	}
	if cfg.Reducer.Metric == "" {
		cfg.Reducer.Metric = "euclidean"
	}
	if cfg.Reducer.Init == "" {
		cfg.Reducer.Init = "pca"
	}
	if cfg.Corpus.Key == "" {
		cfg.Corpus.Key = "id"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// applyEnv lets BOOKMAP_* variables override file locations.
func applyEnv(cfg *AppConfig) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"BOOKMAP_CATALOG_CSV", &cfg.Paths.CatalogCSV},
		{"BOOKMAP_TEXT_DIR", &cfg.Paths.TextDir},
		{"BOOKMAP_OUTPUT_JSON", &cfg.Paths.OutputJSON},
		{"BOOKMAP_CLEAN_JSON", &cfg.Paths.CleanJSON},
		{"BOOKMAP_VECTORS_PATH", &cfg.Vectorizer.VectorsPath},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

package sources

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Selectors externalize which markup paths an adapter reads, so site-layout
// drift is corrected by editing configuration, not adapter logic.
type Selectors struct {
	BaseURL string `yaml:"base_url"`

	// result page
	Card       string `yaml:"card"`
	Title      string `yaml:"title"`
	Link       string `yaml:"link"`
	Price      string `yaml:"price"`
	Location   string `yaml:"location"`
	Area       string `yaml:"area"`
	Bedrooms   string `yaml:"bedrooms"`
	Bathrooms  string `yaml:"bathrooms"`
	Parking    string `yaml:"parking"`
	Image      string `yaml:"image"`
	DetailLink string `yaml:"detail_link"`

	// detail page
	DetailTitle    string `yaml:"detail_title"`
	DetailPrice    string `yaml:"detail_price"`
	DetailLocation string `yaml:"detail_location"`
	DetailArea     string `yaml:"detail_area"`
	DetailBedrooms string `yaml:"detail_bedrooms"`
	DetailImage    string `yaml:"detail_image"`
}

type Config map[string]Selectors

//go:embed selectors.yaml
var defaultSelectors []byte

// LoadSelectors reads a selector config file, falling back to the embedded
// defaults when path is empty.
func LoadSelectors(path string) (Config, error) {

	raw := defaultSelectors
	if path != "" {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrapf(err, "read selectors file %v", path)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse selectors")
	}
	return cfg, nil
}

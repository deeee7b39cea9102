package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
)

// commonKey is the override section applied to every variant before the
// variant's own section.
const commonKey = "common"

// Load returns the settings for v with overrides from file applied.
//
// The override file holds an optional "common" section and one section
// per variant name:
//
//	common:
//	  author: Tim Arnold
//	production:
//	  site_url: https://reachtim.com
//	  plugins: [render_math, sitemap]
//	  extra_path_metadata:
//	    extra/CNAME: {path: CNAME}
//
// Keys present in a section replace the built-in value wholesale; lists
// and maps are not merged. Map keys are file names and are kept verbatim.
// A missing file is not an error.
func Load(file string, v Variant) (Settings, error) {
	s, err := Defaults(v)
	if err != nil {
		return Settings{}, err
	}
	if file == "" {
		return s, nil
	}

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings overrides %s: %w", file, err)
	}

	var sections map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return Settings{}, fmt.Errorf("parse settings overrides %s: %w", file, err)
	}

	for _, section := range []string{commonKey, v.String()} {
		raw, ok := sections[section]
		if !ok || raw == nil {
			continue
		}
		if err := decode(raw, &s); err != nil {
			return Settings{}, fmt.Errorf("decode %s settings from %s: %w", section, file, err)
		}
	}
	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", file, err)
	}
	return s, nil
}

// decode applies one override section to s. Decoded lists and maps
// replace the defaults instead of being merged into them.
func decode(raw any, s *Settings) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           s,
		ZeroFields:       true,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// internal/util/util.go
package util

import (
	"os"

	"github.com/erilali/mcbridge/internal/logger"
	"gopkg.in/yaml.v3"
)

// LoadLoggerConfig loads the logger configuration from a YAML file. A missing
// file yields the defaults; keys absent from the file keep their default
// values. The settings may sit at the top level or under a `log:` key.
func LoadLoggerConfig(filePath string) (logger.LogConfig, error) {
	config := logger.DefaultLogConfig()
	if filePath == "" {
		return config, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	var probe map[string]interface{}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return config, err
	}
	if _, nested := probe["log"]; nested {
		wrapped := struct {
			Log logger.LogConfig `yaml:"log"`
		}{Log: config}
		if err := yaml.Unmarshal(data, &wrapped); err != nil {
			return config, err
		}
		return wrapped.Log, nil
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return logger.DefaultLogConfig(), err
	}
	return config, nil
}

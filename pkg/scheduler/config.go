package scheduler

import "gopkg.in/yaml.v3"

func yamlUnmarshal(data []byte, out *Config) error {
	return yaml.Unmarshal(data, out)
}

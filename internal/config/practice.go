package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Practice carries the spoken content for one dental practice.
// The YAML file is optional; anything it leaves unset keeps the built-in
// Oak Dental defaults so a fresh checkout answers calls sensibly.
type Practice struct {
	PracticeName string   `yaml:"practice_name"`
	Voice        string   `yaml:"voice"`
	Language     string   `yaml:"language"`
	Hours        string   `yaml:"hours"`
	Address      string   `yaml:"address"`
	Prices       string   `yaml:"prices"`
	Greetings    []string `yaml:"greetings"`
	Goodbyes     []string `yaml:"goodbyes"`
}

func defaultPractice() Practice {
	return Practice{
		PracticeName: "Oak Dental",
		Hours:        "We're open Monday to Friday nine to five, Saturday nine to one. Closed Sundays and bank holidays.",
		Address:      "We're at 12 High Street, Oakford, OX1 2AB. Entrance next to the pharmacy.",
		Prices:       "A routine check-up is forty five pounds. Hygiene is sixty five. Whitening starts from two hundred and fifty.",
	}
}

// LoadPractice reads the practice YAML and merges it over the defaults.
// A missing file is fine; unreadable or invalid YAML is a startup error.
func LoadPractice(path string) (Practice, error) {
	p := defaultPractice()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return Practice{}, fmt.Errorf("read practice config %s: %w", path, err)
	}

	var loaded Practice
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Practice{}, fmt.Errorf("parse practice config %s: %w", path, err)
	}

	if loaded.PracticeName != "" {
		p.PracticeName = loaded.PracticeName
	}
	if loaded.Voice != "" {
		p.Voice = loaded.Voice
	}
	if loaded.Language != "" {
		p.Language = loaded.Language
	}
	if loaded.Hours != "" {
		p.Hours = loaded.Hours
	}
	if loaded.Address != "" {
		p.Address = loaded.Address
	}
	if loaded.Prices != "" {
		p.Prices = loaded.Prices
	}
	if len(loaded.Greetings) > 0 {
		p.Greetings = loaded.Greetings
	}
	if len(loaded.Goodbyes) > 0 {
		p.Goodbyes = loaded.Goodbyes
	}
	return p, nil
}

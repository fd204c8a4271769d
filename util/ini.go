package util

import (
	"gopkg.in/ini.v1"
)

// IniSection returns the keys of a section of an ini file. Use "" for the default section.
func IniSection(path, section string) (map[string]string, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.Section(section).KeysHash(), nil
}

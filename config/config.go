package config

// avedit.ini, e.g.
//
//   dir = C:\saves
//   platform = ps3
//
//   [save]
//   backup = true
//   backup_suffix = .backup
//   update_checksum = false
//
//   [log]
//   level = debug
//   file = avedit.log
//
// Every key is optional.  No ini file at all is fine too.

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"avsave/types"
)

const DEFAULT_FILE = "avedit.ini"

type Config struct {
	Dir string

	// PT_NONE means "work it out from the file"
	Platform types.Platform

	Backup          bool
	Backup_suffix   string
	Update_checksum bool

	Log_level string
	Log_file  string
}

func Defaults() Config {
	return Config{
		Backup:        true,
		Backup_suffix: ".backup",
		Log_level:     "warn",
	}
}

// Load reads an ini file over the defaults. A missing file is not an error.
func Load(file string) (Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	f, err := ini.Load(file)
	if err != nil {
		return cfg, fmt.Errorf("reading %v: %w", file, err)
	}

	// default section can be represented as empty string
	top := f.Section("")
	cfg.Dir = strings.TrimSpace(top.Key("dir").String())
	if p := strings.TrimSpace(top.Key("platform").String()); p != "" && p != "auto" {
		cfg.Platform, err = types.ParsePlatform(p)
		if err != nil {
			return cfg, fmt.Errorf("%v: %w", file, err)
		}
	}

	save := f.Section("save")
	cfg.Backup = save.Key("backup").MustBool(cfg.Backup)
	if save.HasKey("backup_suffix") {
		// MustString would quietly turn "" back into the default
		cfg.Backup_suffix = strings.TrimSpace(save.Key("backup_suffix").String())
	}
	cfg.Update_checksum = save.Key("update_checksum").MustBool(cfg.Update_checksum)
	if cfg.Backup && cfg.Backup_suffix == "" {
		return cfg, fmt.Errorf("%v: backup_suffix can not be empty (the backup would overwrite the save)", file)
	}

	log := f.Section("log")
	cfg.Log_level = log.Key("level").MustString(cfg.Log_level)
	cfg.Log_file = log.Key("file").String()

	return cfg, nil
}

// Get_dir: dir from the command line, else from the ini file, else the working directory.
func (c Config) Get_dir(from_args string) string {
	if from_args != "" {
		return from_args
	}
	if c.Dir != "" {
		return c.Dir
	}
	wd, _ := os.Getwd()
	return wd
}

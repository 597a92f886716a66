package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "SECTORFS"
	appName      = "sectorfs"
)

type Config struct {
	// Image is the path of the host file backing the volume. Ignored when an
	// S3 bucket is configured.
	Image string `envconfig:"SECTORFS_IMAGE"       yaml:"image"`

	// Label names the volume; a fresh image's file name is derived from it
	// when Image is empty.
	Label string `envconfig:"SECTORFS_LABEL"       yaml:"label"`

	// NumSectors is the geometry used when formatting a fresh volume.
	NumSectors int `envconfig:"SECTORFS_NUM_SECTORS" yaml:"numSectors"`

	// S3Bucket selects the S3-backed device instead of a local image.
	S3Bucket string `envconfig:"SECTORFS_S3_BUCKET"   yaml:"s3Bucket"`

	// S3Prefix is the key prefix the volume's sectors live under.
	S3Prefix string `envconfig:"SECTORFS_S3_PREFIX"   yaml:"s3Prefix"`

	LogLevel string `envconfig:"SECTORFS_LOG_LEVEL"   yaml:"logLevel"`
}

const defaultNumSectors = 1024

func LoadConfig() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = filepath.Join(
			os.Getenv("HOME"),
			".config",
			appName+".yaml",
		)
	}

	var c Config
	data, err := os.ReadFile(configFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	if c.NumSectors == 0 {
		c.NumSectors = defaultNumSectors
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return &c, nil
}

// ImagePath is the image file backing the volume, derived from the label
// when not set explicitly: a labeled volume slugs its label, an anonymous
// one gets a fresh UUID.
func (c *Config) ImagePath() string {
	if c.Image != "" {
		return c.Image
	}
	if c.Label != "" {
		return slug.Make(c.Label) + ".img"
	}
	return appName + "-" + uuid.NewString() + ".img"
}

// VolumePrefix is the S3 key prefix of the volume, derived like ImagePath.
func (c *Config) VolumePrefix() string {
	if c.S3Prefix != "" {
		return c.S3Prefix
	}
	if c.Label != "" {
		return "volumes/" + slug.Make(c.Label)
	}
	return "volumes/" + uuid.NewString()
}

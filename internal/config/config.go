package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Defaults used when the configuration file leaves a value empty.
const (
	DefaultPort          = 8000
	DefaultModelPath     = "models/resnet34_knee_final.onnx"
	DefaultMetadataPath  = "models/model_metadata.json"
	DefaultLimiterRate   = "100-S"
	DefaultMaxUploadSize = 10 << 20
	DefaultImageSize     = 224
	DefaultMaxPixels     = 89478485
)

// ModelSettings describes where the network weights live and how inputs are prepared
type ModelSettings struct {
	// ONNX export of the trained network
	Path string `json:"path" validate:"required"`
	// optional provenance record, see Provenance
	MetadataPath string `json:"metadata_path"`
	// onnxruntime shared library, empty uses the platform default
	RuntimeLib string `json:"runtime_lib"`
	// square input resolution
	ImageSize int `json:"image_size" validate:"min=1,max=4096"`
	// per-channel normalization constants
	Mean [3]float32 `json:"mean"`
	Std  [3]float32 `json:"std" validate:"dive,gt=0"`
	// decode limit for uploads, checked from the image header
	MaxPixels int `json:"max_pixels" validate:"min=1"`
	// intra-op threads, 0 lets the runtime decide
	Threads int `json:"threads" validate:"min=0,max=256"`
}

// ServerSettings holds HTTP server parameters
type ServerSettings struct {
	Port          int      `json:"port" validate:"min=1,max=65535"`
	LimiterRate   string   `json:"rate" validate:"required"` // limiter rate value, e.g. 100-S
	MaxUploadSize int64    `json:"max_upload_size" validate:"min=1"`
	ServerCrt     string   `json:"server_cert"`
	ServerKey     string   `json:"server_key"`
	DomainNames   []string `json:"domain_names"` // LetsEncrypt domain names
	CertsDir      string   `json:"certs_dir"`    // autocert cache directory
}

// Configuration stores the whole service configuration
type Configuration struct {
	Server ServerSettings `json:"server"`
	Model  ModelSettings  `json:"model"`
	Logger LoggerSettings `json:"logger"`
}

// Default returns configuration with every default applied
func Default() *Configuration {
	c := &Configuration{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the given JSON file. An empty path yields the
// default configuration. Environment overrides are applied last.
func Load(configFile string) (*Configuration, error) {
	c := &Configuration{}
	if configFile != "" {
		data, err := os.ReadFile(filepath.Clean(configFile))
		if err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", configFile, err)
		}
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", configFile, err)
		}
	}
	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks configuration values
func (c *Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c.Server); err != nil {
		return fmt.Errorf("validation failed for ServerSettings: %w", err)
	}
	if err := validate.Struct(c.Model); err != nil {
		return fmt.Errorf("validation failed for ModelSettings: %w", err)
	}
	if (c.Server.ServerCrt == "") != (c.Server.ServerKey == "") {
		return fmt.Errorf("server_cert and server_key must be set together")
	}
	return c.Logger.Validate()
}

// TLSEnabled reports whether the server should listen with HTTPS
func (c *Configuration) TLSEnabled() bool {
	return len(c.Server.DomainNames) > 0 || c.Server.ServerCrt != ""
}

func (c *Configuration) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LimiterRate == "" {
		c.Server.LimiterRate = DefaultLimiterRate
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.Server.CertsDir == "" {
		c.Server.CertsDir = "certs"
	}
	if c.Model.Path == "" {
		c.Model.Path = DefaultModelPath
	}
	if c.Model.MetadataPath == "" {
		c.Model.MetadataPath = DefaultMetadataPath
	}
	if c.Model.ImageSize == 0 {
		c.Model.ImageSize = DefaultImageSize
	}
	if c.Model.MaxPixels == 0 {
		c.Model.MaxPixels = DefaultMaxPixels
	}
	// ImageNet statistics used by the training pipeline
	if c.Model.Mean == [3]float32{} {
		c.Model.Mean = [3]float32{0.485, 0.456, 0.406}
	}
	if c.Model.Std == [3]float32{} {
		c.Model.Std = [3]float32{0.229, 0.224, 0.225}
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = LogLevelInfo
	}
	if c.Logger.LogType == "" {
		c.Logger.LogType = LogTypeConsole
	}
}

func (c *Configuration) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	if path := os.Getenv("MODEL_PATH"); path != "" {
		c.Model.Path = path
	}
	if lib := os.Getenv("ONNXRUNTIME_LIB"); lib != "" {
		c.Model.RuntimeLib = lib
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logger.LogLevel = level
	}
	return nil
}

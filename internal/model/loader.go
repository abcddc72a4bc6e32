package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/knee-api/internal/config"
	"github.com/Brownie44l1/knee-api/internal/logger"
	"github.com/Brownie44l1/knee-api/internal/preprocess"
)

// openNetwork builds the inference backend; tests replace it.
var openNetwork = func(s config.ModelSettings) (Network, error) {
	if err := InitRuntime(s.RuntimeLib); err != nil {
		return nil, err
	}
	net, err := NewOnnxNetwork(s.Path, s.ImageSize, NumGrades, s.Threads)
	if err != nil {
		_ = DestroyRuntime()
		return nil, err
	}
	return &runtimeNetwork{net}, nil
}

// runtimeNetwork tears the runtime down together with the session.
type runtimeNetwork struct {
	*OnnxNetwork
}

func (n *runtimeNetwork) Close() error {
	err := n.OnnxNetwork.Close()
	if derr := DestroyRuntime(); err == nil {
		err = derr
	}
	return err
}

// Load restores the classifier from the configured weight file.
//
// A missing weight file yields ErrWeightsNotFound so the caller can keep
// serving and report the model as unavailable. Any other failure (unreadable
// or corrupt weights, wrong topology, checksum mismatch) is returned as is.
func Load(s config.ModelSettings, log logger.Logger) (*Classifier, error) {
	log.Info("Loading model from ", s.Path)

	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWeightsNotFound, s.Path)
		}
		return nil, fmt.Errorf("unable to access model file: %w", err)
	}

	meta, err := LoadMetadata(s.MetadataPath)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		if err := meta.check(s); err != nil {
			return nil, err
		}
		log.Info("Model version ", meta.Version, " from ", meta.Source)
	} else {
		log.Warn("No model metadata found, weight file provenance is unknown")
	}

	net, err := openNetwork(s)
	if err != nil {
		return nil, err
	}

	opts := preprocess.Options{Size: s.ImageSize, Mean: s.Mean, Std: s.Std, MaxPixels: s.MaxPixels}
	log.Info("Model loaded, classes: ", strings.Join(Labels[:], ", "))
	return NewClassifier(net, opts, meta, log), nil
}

// LoadMetadata reads the provenance record. A missing file is not an error.
func LoadMetadata(path string) (*Metadata, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

func (m *Metadata) check(s config.ModelSettings) error {
	if len(m.Classes) > 0 {
		if len(m.Classes) != NumGrades {
			return fmt.Errorf("metadata lists %d classes, expected %d", len(m.Classes), NumGrades)
		}
		for i, c := range m.Classes {
			if c != Labels[i] {
				return fmt.Errorf("metadata class %d is %q, expected %q", i, c, Labels[i])
			}
		}
	}
	if m.ImageSize != 0 && m.ImageSize != s.ImageSize {
		return fmt.Errorf("metadata image size %d does not match configured %d", m.ImageSize, s.ImageSize)
	}
	if m.SHA256 != "" {
		sum, err := fileSHA256(s.Path)
		if err != nil {
			return err
		}
		if !strings.EqualFold(sum, m.SHA256) {
			return fmt.Errorf("checksum mismatch for %s: got %s, metadata says %s", s.Path, sum, m.SHA256)
		}
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("unable to open model file: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("unable to hash model file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

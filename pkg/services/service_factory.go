package services

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-judim/internal/config"
)

// ServiceFactory provides a centralized way to create and manage media services
type ServiceFactory struct {
	config      *config.Config
	logger      zerolog.Logger
	tapeService TapeService
	diskService DiskService
	mu          sync.RWMutex
	initialized bool
}

// NewServiceFactory creates a new service factory instance
func NewServiceFactory(cfg *config.Config, logger zerolog.Logger) *ServiceFactory {
	return &ServiceFactory{config: cfg, logger: logger}
}

// Initialize initializes all services with their dependencies
func (sf *ServiceFactory) Initialize() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if sf.initialized {
		return nil
	}
	if sf.config == nil {
		return ErrServiceNotAvailable
	}

	// Tape service first, the disk service uses it for put-tap
	tapes := NewTapeService(sf.config, sf.logger)
	sf.tapeService = tapes
	sf.diskService = NewDiskService(sf.config, tapes, sf.logger)

	sf.initialized = true
	return nil
}

// TapeService returns the tape service instance
func (sf *ServiceFactory) TapeService() (TapeService, error) {
	if err := sf.Initialize(); err != nil {
		return nil, err
	}

	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.tapeService, nil
}

// DiskService returns the disk service instance
func (sf *ServiceFactory) DiskService() (DiskService, error) {
	if err := sf.Initialize(); err != nil {
		return nil, err
	}

	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.diskService, nil
}

// Config returns the configuration services are built from
func (sf *ServiceFactory) Config() *config.Config {
	return sf.config
}

// Shutdown releases all services
func (sf *ServiceFactory) Shutdown() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	sf.tapeService = nil
	sf.diskService = nil
	sf.initialized = false
	return nil
}

// IsInitialized returns whether the factory has been initialized
func (sf *ServiceFactory) IsInitialized() bool {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.initialized
}

// ServiceInfo represents information about a service
type ServiceInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Available   bool   `json:"available" yaml:"available"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ListAvailableServices returns information about all available services.
// The disk service needs a valid configured geometry.
func (sf *ServiceFactory) ListAvailableServices() []ServiceInfo {
	tapeInfo := ServiceInfo{
		Name:        "tape",
		Description: "TAP archive decoding, verification, extraction and explode",
		Available:   sf.config != nil,
	}
	diskInfo := ServiceInfo{
		Name:        "disk",
		Description: "CP/M disk image listing, reading, writing and formatting",
		Available:   sf.config != nil,
	}

	if sf.config == nil {
		tapeInfo.Reason = ErrServiceNotAvailable.Error()
		diskInfo.Reason = ErrServiceNotAvailable.Error()
	} else if _, err := sf.config.DiskGeometry(); err != nil {
		diskInfo.Available = false
		diskInfo.Reason = err.Error()
	}
	return []ServiceInfo{tapeInfo, diskInfo}
}

// Common errors
var (
	ErrServiceNotAvailable = fmt.Errorf("service not available: factory has no configuration")
)

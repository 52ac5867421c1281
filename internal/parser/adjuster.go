package parser

import (
	"os"
	"strings"

	"github.com/brizzai/netcall/internal/logger"
	"github.com/brizzai/netcall/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Adjuster filters operations and overrides their descriptions based on a
// YAML selection file
type Adjuster struct {
	selection *models.OperationSelection
}

// NewAdjuster creates an Adjuster that keeps every operation
func NewAdjuster() *Adjuster {
	return &Adjuster{
		selection: &models.OperationSelection{
			Descriptions: []models.PathDescription{},
			Routes:       []models.PathSelection{},
		},
	}
}

// Load loads the selection from a YAML file. A missing file keeps
// everything selected.
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		return nil
	}

	logger.Info("Loading operation selection", zap.String("file", filePath))
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		logger.Warn("Selection file not found", zap.String("file", filePath))
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var selection models.OperationSelection
	if err := yaml.Unmarshal(data, &selection); err != nil {
		return err
	}

	a.selection = &selection
	return nil
}

// Selected reports whether method on path is part of the selection.
// An empty selection selects everything.
func (a *Adjuster) Selected(path, method string) bool {
	if a.selection == nil || len(a.selection.Routes) == 0 {
		return true
	}

	for _, route := range a.selection.Routes {
		if route.Path != path {
			continue
		}
		for _, m := range route.Methods {
			if strings.EqualFold(m, method) {
				return true
			}
		}
		return false
	}

	return false
}

// Description returns the override for path and method, or original.
func (a *Adjuster) Description(path, method, original string) string {
	if a.selection == nil {
		return original
	}

	for _, desc := range a.selection.Descriptions {
		if desc.Path != path {
			continue
		}
		for _, update := range desc.Updates {
			if strings.EqualFold(update.Method, method) {
				return update.NewDescription
			}
		}
		break
	}

	return original
}

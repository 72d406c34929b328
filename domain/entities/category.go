package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

const TypeCategory = "#CATEGORY"

// Category classifies trips. Names are stored lower-cased and are unique.
type Category struct {
	ID        string `json:"id" dynamodbav:"id"`
	Name      string `json:"name" dynamodbav:"name"`
	CreatedAt string `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt string `json:"updatedAt" dynamodbav:"updatedAt"`
	Type      string `json:"type" dynamodbav:"type"`
}

// NormalizeCategoryName lower-cases and trims name.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", pkgerrors.NewValidationError("name is required")
	}
	return name, nil
}

// NewCategory creates a category named name.
func NewCategory(name string, now time.Time) (*Category, error) {
	name, err := NormalizeCategoryName(name)
	if err != nil {
		return nil, err
	}
	ts := now.UTC().Format(time.RFC3339)
	return &Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: ts,
		UpdatedAt: ts,
		Type:      TypeCategory,
	}, nil
}

// Rename sets a new normalized name.
func (c *Category) Rename(name string, now time.Time) error {
	name, err := NormalizeCategoryName(name)
	if err != nil {
		return err
	}
	c.Name = name
	c.UpdatedAt = now.UTC().Format(time.RFC3339)
	return nil
}

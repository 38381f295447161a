package model

import (
	"fmt"
	"strings"
	"time"
)

// VulnerabilityRecord is one record fetched from the external feed.
type VulnerabilityRecord struct {
	Published   time.Time
	ID          string
	Description string
}

// UnknownID identifies feed items that arrive without an identifier.
const UnknownID = "Unknown"

// NewVulnerabilityRecord validates and creates a record. Records with an empty
// description never reach the scorers; whitespace is still text and is scored.
func NewVulnerabilityRecord(id, description string, published time.Time) (VulnerabilityRecord, error) {
	if strings.TrimSpace(id) == "" {
		return VulnerabilityRecord{}, fmt.Errorf("record ID is required")
	}
	if description == "" {
		return VulnerabilityRecord{}, fmt.Errorf("record %s has no description", id)
	}
	return VulnerabilityRecord{
		ID:          id,
		Description: description,
		Published:   published,
	}, nil
}

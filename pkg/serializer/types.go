/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package serializer

import "context"

// Serializer writes one report value to its destination.
type Serializer interface {
	Serialize(ctx context.Context, report any) error
}

// Closer is implemented by serializers that hold a file handle.
type Closer interface {
	Close() error
}

// Format selects the output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// SupportedFormats lists every accepted format name.
func SupportedFormats() []string {
	return []string{
		string(FormatJSON),
		string(FormatYAML),
		string(FormatTable),
	}
}

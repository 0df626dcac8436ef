package node

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLabelLength bounds a single label in bytes. The wire form stores the
// label length in one byte, so this is a hard format limit, not a policy.
const MaxLabelLength = 255

// ErrLabelTooShort is returned for empty labels.
var ErrLabelTooShort = errors.New("label too short")

// ErrLabelTooLong is returned for labels above MaxLabelLength bytes.
var ErrLabelTooLong = errors.New("label too long")

// ErrMalformedName is returned when a wire-form name cannot be parsed.
var ErrMalformedName = errors.New("malformed wire name")

// CheckLabel validates a single label against the accepted length bounds.
func CheckLabel(label string) error {
	if len(label) == 0 {
		return ErrLabelTooShort
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("%w: %d bytes", ErrLabelTooLong, len(label))
	}
	return nil
}

// EncodeName converts a dotted name into wire form: each label prefixed by
// its length byte, terminated by a zero byte. The empty name encodes to the
// bare terminator.
func EncodeName(name string) ([]byte, error) {
	if name == "" {
		return []byte{0}, nil
	}
	labels := strings.Split(name, ".")
	out := make([]byte, 0, len(name)+len(labels)+1)
	for _, label := range labels {
		if err := CheckLabel(label); err != nil {
			return nil, err
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), nil
}

// AppendLabel prepends one label to an existing wire-form name, producing
// the child's wire form.
func AppendLabel(label string, parent []byte) ([]byte, error) {
	if err := CheckLabel(label); err != nil {
		return nil, err
	}
	if len(parent) == 0 {
		parent = []byte{0}
	}
	out := make([]byte, 0, 1+len(label)+len(parent))
	out = append(out, byte(len(label)))
	out = append(out, label...)
	return append(out, parent...), nil
}

// DecodeLabels parses a wire-form name into its label sequence, leftmost
// label first. The root name decodes to nil.
func DecodeLabels(wire []byte) ([]string, error) {
	var labels []string
	i := 0
	for {
		if i >= len(wire) {
			return nil, ErrMalformedName
		}
		n := int(wire[i])
		i++
		if n == 0 {
			break
		}
		if i+n > len(wire) {
			return nil, ErrMalformedName
		}
		labels = append(labels, string(wire[i:i+n]))
		i += n
	}
	if i != len(wire) {
		return nil, ErrMalformedName
	}
	return labels, nil
}

// DecodeName converts a wire-form name back to dotted form.
func DecodeName(wire []byte) (string, error) {
	labels, err := DecodeLabels(wire)
	if err != nil {
		return "", err
	}
	return strings.Join(labels, "."), nil
}

// NamehashWire computes the node ID for a wire-form name.
func NamehashWire(wire []byte) (ID, error) {
	labels, err := DecodeLabels(wire)
	if err != nil {
		return ID{}, err
	}
	return NamehashLabels(labels)
}

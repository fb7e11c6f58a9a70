package tweak

import (
	"encoding/json"
	"fmt"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/hashicorp/go-version"
)

// RecordVersion is the version written into new records.
const RecordVersion = "1.0"

// SupportedRecordVersions is the range of record versions Decode accepts.
const SupportedRecordVersions = ">= 1.0, < 2.0"

var supportedVersions = version.MustConstraints(version.NewConstraint(SupportedRecordVersions))

// Record is the archived form of a tweak: the identity of its hook.
type Record struct {
	Version  string          `json:"version,omitempty" yaml:"version,omitempty"`
	Class    string          `json:"class" yaml:"class"`
	Selector method.Selector `json:"selector" yaml:"selector"`
	Scope    method.Scope    `json:"scope" yaml:"scope"`
}

// RecordFor returns a current-version record for key.
func RecordFor(key method.Key) Record {
	return Record{
		Version:  RecordVersion,
		Class:    key.Class,
		Selector: key.Selector,
		Scope:    key.Scope,
	}
}

// Key returns the method key the record describes.
func (r Record) Key() method.Key {
	return method.NewKey(r.Class, r.Selector, r.Scope)
}

// Check validates the record's version and key. Records without a version
// predate versioning and are read as 1.0.
func (r Record) Check() error {
	raw := r.Version
	if raw == "" {
		raw = RecordVersion
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", errors.ErrInvalidRecord, r.Version, err)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("%w: %s (supported %s)", errors.ErrUnsupportedVersion, v, SupportedRecordVersions)
	}
	if err := r.Key().Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRecord, err)
	}
	return nil
}

// Record returns the tweak's archived form. Enabled state is not part of it.
func (t *Tweak) Record() Record {
	return RecordFor(t.Key())
}

// Encode returns the JSON form of the tweak's record.
func (t *Tweak) Encode() ([]byte, error) {
	return json.Marshal(t.Record())
}

// MarshalJSON implements json.Marshaler.
func (t *Tweak) MarshalJSON() ([]byte, error) {
	return t.Encode()
}

// Decode rebuilds a tweak from data written by Encode. The tweak starts
// disabled regardless of its state when it was encoded.
func Decode(reg *hook.Registry, data []byte) (*Tweak, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRecord, err)
	}
	return FromRecord(reg, r)
}

// FromRecord rebuilds a disabled tweak from r.
func FromRecord(reg *hook.Registry, r Record) (*Tweak, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	h, err := reg.Hook(r.Key())
	if err != nil {
		return nil, err
	}
	return New(h)
}

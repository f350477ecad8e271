package gate

import (
	"errors"
	"fmt"

	"github.com/evn/appgate/internal/semver"
)

// Status is the outcome of a version check, as sent on the wire.
type Status string

const (
	// StatusUpToDate means the client may proceed without any prompt.
	StatusUpToDate Status = "up_to_date"
	// StatusSoftUpdate means a newer version should be suggested but the
	// client may keep going.
	StatusSoftUpdate Status = "soft_update"
	// StatusForceUpdate means the client must update before proceeding.
	StatusForceUpdate Status = "force_update"
	// StatusMaintenance means the backend is down for maintenance and the
	// client must not proceed regardless of its version.
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is one of the known wire statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUpToDate, StatusSoftUpdate, StatusForceUpdate, StatusMaintenance:
		return true
	}
	return false
}

// ErrUnavailable wraps failures that prevent a check from being resolved at
// all, such as an unparseable version in the gate configuration. Callers
// decide the failure policy themselves; clients that must not lock users
// out on our mistakes treat it as up to date.
var ErrUnavailable = errors.New("version check unavailable")

// Input is everything a version check depends on.
type Input struct {
	// Current is the version the client is running.
	Current semver.Version
	// Minimum is the soft floor. Older clients get an update suggestion.
	Minimum semver.Version
	// ForceMinimum is the hard floor. Older clients are blocked.
	ForceMinimum semver.Version
	// Maintenance blocks every client while set, whatever their version.
	Maintenance bool
}

// Resolve decides the status for a single check. Rules apply in strict
// order: maintenance first, then the hard floor, then the soft floor.
//
// The hard floor is checked on its own, not as an escalation of the soft
// one. A misconfigured gate with ForceMinimum above Minimum still blocks
// exactly the clients below ForceMinimum.
func Resolve(in Input) Status {
	if in.Maintenance {
		return StatusMaintenance
	}
	if !in.Current.MeetsMinimum(in.ForceMinimum) {
		return StatusForceUpdate
	}
	if !in.Current.MeetsMinimum(in.Minimum) {
		return StatusSoftUpdate
	}
	return StatusUpToDate
}

// ResolveStrings parses the three versions and resolves the check. Any
// parse failure is reported as ErrUnavailable with the cause attached;
// no status is invented for bad input.
func ResolveStrings(current, minimum, forceMinimum string, maintenance bool) (Status, error) {
	cur, err := semver.Parse(current)
	if err != nil {
		return "", fmt.Errorf("%w: current version: %w", ErrUnavailable, err)
	}
	min, err := semver.Parse(minimum)
	if err != nil {
		return "", fmt.Errorf("%w: minimum version: %w", ErrUnavailable, err)
	}
	force, err := semver.Parse(forceMinimum)
	if err != nil {
		return "", fmt.Errorf("%w: force minimum version: %w", ErrUnavailable, err)
	}

	return Resolve(Input{
		Current:      cur,
		Minimum:      min,
		ForceMinimum: force,
		Maintenance:  maintenance,
	}), nil
}

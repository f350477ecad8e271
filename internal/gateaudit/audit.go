package gateaudit

import (
	"fmt"
	"strings"
	"time"

	"github.com/evn/appgate/internal/models"
	"github.com/evn/appgate/internal/semver"
)

// Severity grades a finding. Failures mean clients are being answered
// wrongly or not at all; warnings mean the configuration is suspicious but
// still resolvable.
type Severity string

const (
	SeverityOK   Severity = "ok"
	SeverityWarn Severity = "warning"
	SeverityFail Severity = "failure"
)

var knownPlatforms = map[string]bool{
	"android": true,
	"ios":     true,
	"web":     true,
}

type Finding struct {
	Platform string   `json:"platform"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type Report struct {
	CheckedAt time.Time `json:"checked_at"`
	Gates     int       `json:"gates"`
	Findings  []Finding `json:"findings"`
}

// Worst returns the most severe grade present in the report.
func (r Report) Worst() Severity {
	worst := SeverityOK
	for _, f := range r.Findings {
		if f.Severity == SeverityFail {
			return SeverityFail
		}
		if f.Severity == SeverityWarn {
			worst = SeverityWarn
		}
	}
	return worst
}

// Run audits every gate and collects findings. It never mutates anything;
// operators decide what to do with the report.
func Run(gates []models.VersionGate) Report {
	report := Report{
		CheckedAt: time.Now().UTC(),
		Gates:     len(gates),
		Findings:  make([]Finding, 0),
	}

	for i := range gates {
		report.Findings = append(report.Findings, auditGate(&gates[i])...)
	}

	return report
}

func auditGate(g *models.VersionGate) []Finding {
	var findings []Finding

	fail := func(format string, args ...interface{}) {
		findings = append(findings, Finding{Platform: g.Platform, Severity: SeverityFail, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(format string, args ...interface{}) {
		findings = append(findings, Finding{Platform: g.Platform, Severity: SeverityWarn, Message: fmt.Sprintf(format, args...)})
	}

	if !knownPlatforms[g.Platform] {
		fail("unknown platform %q", g.Platform)
	}
	if g.StoreURL == "" {
		fail("store_url is empty, blocked clients have nowhere to go")
	} else if !strings.HasPrefix(g.StoreURL, "https://") {
		warn("store_url %q is not https", g.StoreURL)
	}

	latest, latestErr := semver.Parse(g.LatestVersion)
	if latestErr != nil {
		fail("latest_version %q does not parse", g.LatestVersion)
	}
	minimum, minErr := semver.Parse(g.MinimumVersion)
	if minErr != nil {
		fail("minimum_version %q does not parse, every check on this platform fails", g.MinimumVersion)
	}
	force, forceErr := semver.Parse(g.ForceMinimumVersion)
	if forceErr != nil {
		fail("force_minimum_version %q does not parse, every check on this platform fails", g.ForceMinimumVersion)
	}

	if minErr == nil && forceErr == nil && minimum.LessThan(force) {
		warn("force_minimum_version %s is above minimum_version %s, soft floor never applies",
			g.ForceMinimumVersion, g.MinimumVersion)
	}
	if latestErr == nil && minErr == nil && latest.LessThan(minimum) {
		warn("latest_version %s is below minimum_version %s, even fresh installs get an update prompt",
			g.LatestVersion, g.MinimumVersion)
	}
	if g.MaintenanceMode && g.MaintenanceMessage == "" {
		warn("maintenance_mode is on without a maintenance_message")
	}

	return findings
}

package gateaudit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/appgate/internal/models"
)

func healthyGate() models.VersionGate {
	return models.VersionGate{
		Platform:            "android",
		LatestVersion:       "2.3.0",
		MinimumVersion:      "2.0.0",
		ForceMinimumVersion: "1.4.0",
		StoreURL:            "https://play.example/app",
	}
}

func TestRunCleanConfig(t *testing.T) {
	report := Run([]models.VersionGate{healthyGate()})

	assert.Equal(t, 1, report.Gates)
	assert.Empty(t, report.Findings)
	assert.Equal(t, SeverityOK, report.Worst())
}

func TestRunFailsOnUnparseableVersions(t *testing.T) {
	g := healthyGate()
	g.MinimumVersion = "two point oh"

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityFail, report.Findings[0].Severity)
	assert.Contains(t, report.Findings[0].Message, "minimum_version")
	assert.Equal(t, SeverityFail, report.Worst())
}

func TestRunFailsOnUnknownPlatform(t *testing.T) {
	g := healthyGate()
	g.Platform = "symbian"

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityFail, report.Findings[0].Severity)
	assert.Contains(t, report.Findings[0].Message, "symbian")
}

func TestRunFailsOnEmptyStoreURL(t *testing.T) {
	g := healthyGate()
	g.StoreURL = ""

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityFail, report.Findings[0].Severity)
}

func TestRunWarnsOnInvertedFloors(t *testing.T) {
	g := healthyGate()
	g.MinimumVersion = "2.0.0"
	g.ForceMinimumVersion = "3.0.0"

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityWarn, report.Findings[0].Severity)
	assert.Contains(t, report.Findings[0].Message, "soft floor never applies")
	assert.Equal(t, SeverityWarn, report.Worst())
}

func TestRunWarnsOnSilentMaintenance(t *testing.T) {
	g := healthyGate()
	g.MaintenanceMode = true
	g.MaintenanceMessage = ""

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityWarn, report.Findings[0].Severity)
}

func TestRunWarnsOnLatestBelowMinimum(t *testing.T) {
	g := healthyGate()
	g.LatestVersion = "1.9.0"

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityWarn, report.Findings[0].Severity)
	assert.Contains(t, report.Findings[0].Message, "latest_version")
}

func TestRunWarnsOnPlainHTTPStore(t *testing.T) {
	g := healthyGate()
	g.StoreURL = "http://play.example/app"

	report := Run([]models.VersionGate{g})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, SeverityWarn, report.Findings[0].Severity)
}

func TestWorstPrefersFailureOverWarning(t *testing.T) {
	broken := healthyGate()
	broken.Platform = "symbian"
	suspicious := healthyGate()
	suspicious.ForceMinimumVersion = "9.0.0"

	report := Run([]models.VersionGate{suspicious, broken})

	assert.Equal(t, SeverityFail, report.Worst())
	assert.Len(t, report.Findings, 2)
}

func TestRunEmptySet(t *testing.T) {
	report := Run(nil)

	assert.Equal(t, 0, report.Gates)
	assert.NotNil(t, report.Findings)
	assert.Equal(t, SeverityOK, report.Worst())
}

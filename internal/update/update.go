// Package update performs the opt-in release check behind `ftg version
// --check`. The check is strictly best-effort: any network or decode
// failure yields a nil result so the version command never fails or
// stalls because GitHub is unreachable.
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// DefaultGitHubReleasesURL points at the latest ftg release.
	DefaultGitHubReleasesURL = "https://api.github.com/repos/feats/ftg/releases/latest"

	// CheckTimeout bounds the whole release check; the version command
	// should stay snappy even on a flaky network.
	CheckTimeout = 5 * time.Second
)

// GitHubReleasesURL is the releases endpoint queried by CheckForUpdate.
// Overridable in tests.
var GitHubReleasesURL = DefaultGitHubReleasesURL

// Release is the subset of the GitHub release payload ftg cares about:
// the tag to compare against and the page to send the user to.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckResult describes how the running ftg binary compares to the
// latest published release.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateURL       string
	UpdateAvailable bool
}

// CheckForUpdate compares currentVersion against the latest ftg release
// tag. Development builds ("dev" or empty, the default when built
// without ldflags) skip the check entirely, and any failure returns nil.
func CheckForUpdate(ctx context.Context, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" {
		return nil
	}

	release := fetchLatestRelease(ctx, currentVersion)
	if release == nil {
		return nil
	}

	result := &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}

	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)
	if semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}

	return result
}

func fetchLatestRelease(ctx context.Context, currentVersion string) *Release {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", GitHubReleasesURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "ftg/"+currentVersion)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}
	return &release
}

// normalizeVersion prefixes a bare version with "v" so release tags and
// ldflags-injected versions compare under the same semver form.
func normalizeVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

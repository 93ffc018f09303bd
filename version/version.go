// Package version reports which appkit is running and whether a newer release exists.
package version

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/kxue43/appkit/jsonstream"
)

// Version is overridden at release time with -ldflags "-X github.com/kxue43/appkit/version.Version=...".
var Version = "v0.1.0"

var (
	releasesURL  = "https://api.github.com/repos/kxue43/appkit/releases/latest"
	checkTimeout = 5 * time.Second
)

// Current is the running tool's version with a leading "v".
func Current() string {
	if info, ok := debug.ReadBuildInfo(); ok && semver.IsValid(info.Main.Version) {
		return info.Main.Version
	}

	return Canonical(Version)
}

// Canonical adds the "v" prefix semver expects. Invalid input comes back unchanged.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	return v
}

// NewerThan reports whether a is a valid version greater than b.
func NewerThan(a, b string) bool {
	a, b = Canonical(a), Canonical(b)
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return false
	}

	return semver.Compare(a, b) > 0
}

func FromBuildInfo() (version string) {
	version = Current()

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}

	var vcs, revision, ts string

	for i := range info.Settings {
		switch info.Settings[i].Key {
		case "vcs":
			vcs = info.Settings[i].Value
		case "vcs.revision":
			revision = info.Settings[i].Value
		case "vcs.time":
			ts = info.Settings[i].Value
		default:
			continue
		}
	}

	if revision == "" {
		return version
	}

	if ts == "" {
		return fmt.Sprintf("%s, built from %s revision %s", version, vcs, revision)
	}

	return fmt.Sprintf("%s, built from %s revision %s at %s", version, vcs, revision, ts)
}

// LatestRelease asks GitHub for the tag of the latest release.
func LatestRelease(ctx context.Context, client *http.Client) (tag string, err error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build release request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get latest release: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if rc := resp.StatusCode; rc != http.StatusOK {
		return "", fmt.Errorf("failed to get latest release, status code %d", rc)
	}

	tag, err = jsonstream.String(ctx, resp.Body, ".tag_name")
	if err != nil {
		return "", fmt.Errorf(`failed to get the value at the ".tag_name" path from the response body: %w`, err)
	}

	return Canonical(tag), nil
}

// Package update checks whether a newer datascope release is available.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
)

const releaseEndpoint = "https://api.github.com/repos/datascope-io/datascope/releases/latest"

// Check fetches the latest released version and compares it against
// current. It returns the latest version string and whether an update
// is available.
func Check(current string) (latest string, available bool, err error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return "", false, fmt.Errorf("invalid version format: %w", err)
	}

	latest, err = fetchLatestVersion()
	if err != nil {
		return "", false, err
	}
	latestVersion, err := version.NewVersion(latest)
	if err != nil {
		return "", false, fmt.Errorf("invalid latest version format: %w", err)
	}

	return latest, cur.LessThan(latestVersion), nil
}

func fetchLatestVersion() (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(releaseEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to check for updates: HTTP %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to parse release info: %w", err)
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}

// DownloadURL returns the release download URL for the current platform.
func DownloadURL(v string) string {
	return fmt.Sprintf("https://github.com/datascope-io/datascope/releases/download/v%s/datascope-%s-%s",
		v, runtime.GOOS, runtime.GOARCH)
}

package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *HelmwrightError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *HelmwrightError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// NotLoggedIn creates a missing credential error
func NotLoggedIn() *HelmwrightError {
	return New(ErrCodeNotLoggedIn, "no API credential found, run 'helmwright login' first")
}

// TokenRejected creates a push token rejection error
func TokenRejected(reason string) *HelmwrightError {
	return New(ErrCodeTokenRejected, fmt.Sprintf("push token rejected: %s", reason))
}

// PushExhausted creates an error for an exhausted reconnect budget
func PushExhausted(attempts int) *HelmwrightError {
	return New(ErrCodePushExhausted,
		fmt.Sprintf("push channel gave up after %d reconnect attempts", attempts)).
		WithDetail("attempts", attempts)
}

// WorkspaceNotMapped creates an error for a workspace with no local chart directory
func WorkspaceNotMapped(workspaceID string) *HelmwrightError {
	return New(ErrCodeWorkspaceNotMapped,
		fmt.Sprintf("workspace '%s' has no local chart directory mapping", workspaceID)).
		WithDetail("workspace", workspaceID)
}

// ArtifactWrite creates a filesystem write failure error
func ArtifactWrite(path string, err error) *HelmwrightError {
	return Wrap(err, ErrCodeArtifactWrite, fmt.Sprintf("failed to write chart file: %s", path)).
		WithDetail("path", path)
}

// ArtifactPath creates a path resolution failure error
func ArtifactPath(filePath string, reason string) *HelmwrightError {
	return New(ErrCodeArtifactPath,
		fmt.Sprintf("cannot resolve artifact path '%s': %s", filePath, reason)).
		WithDetail("filePath", filePath)
}

// PendingNotFound creates an error for a missing pending-content entry
func PendingNotFound(filePath string) *HelmwrightError {
	return New(ErrCodePendingNotFound,
		fmt.Sprintf("no pending content for '%s'", filePath)).
		WithDetail("filePath", filePath)
}

// LocalEditNewer creates an error for an accept that would clobber a local edit
func LocalEditNewer(filePath string) *HelmwrightError {
	return New(ErrCodeLocalEditNewer,
		fmt.Sprintf("'%s' was edited locally after the pending content arrived", filePath)).
		WithDetail("filePath", filePath)
}

// APIStatus creates an error for a non-2xx API response
func APIStatus(status int, body string) *HelmwrightError {
	return New(ErrCodeAPIStatus, fmt.Sprintf("API returned status %d", status)).
		WithDetail("status", status).
		WithDetail("body", body)
}

package pkgerrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode_MapsKindToProcessExitStatus(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 3, ExitCode(New(ChecksumMismatch, "bad.tar.gz")))
	assert.Equal(t, 7, ExitCode(New(UnknownPackage, "foo")))
	assert.Equal(t, 8, ExitCode(New(UnknownPackageOnInfo, "foo")))
	assert.Equal(t, 0, ExitCode(New(HookFailed, "post_install")))
}

func TestExitCode_UnknownErrorDefaultsToUsageError(t *testing.T) {
	assert.Equal(t, 1, ExitCode(fmt.Errorf("some other failure")))
}

func TestWrap_PreservesCauseAndReason(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(FetchFailed, "https://example.invalid/a.tar.gz", cause)

	assert.Equal(t, "FetchFailed: https://example.invalid/a.tar.gz", err.Error())
	assert.NotNil(t, err.Unwrap())
}

func TestAs_MatchesOnlyTheGivenKind(t *testing.T) {
	err := New(PatchFailed, "001-fix-build.patch")

	assert.True(t, As(err, PatchFailed))
	assert.False(t, As(err, BuildFailed))
	assert.False(t, As(fmt.Errorf("plain"), PatchFailed))
}

func TestKindString_DistinguishesUnknownPackageVariants(t *testing.T) {
	assert.Equal(t, "UnknownPackage", UnknownPackage.String())
	assert.Equal(t, "UnknownPackage", UnknownPackageOnInfo.String())
	assert.Equal(t, 7, exitCodes[UnknownPackage])
	assert.Equal(t, 8, exitCodes[UnknownPackageOnInfo])
}

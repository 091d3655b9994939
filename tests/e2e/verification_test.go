package e2e

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chat-archive/uiverify/internal/fixture"
	"github.com/chat-archive/uiverify/internal/verify"
	"github.com/chat-archive/uiverify/tests/e2e/helpers"
)

func TestVerificationRoundTrip(t *testing.T) {
	env := helpers.NewEnv(t, fixture.Options{ReadyDelay: 300 * time.Millisecond})

	res := env.Run(t)
	require.True(t, res.Passed(), "run failed: %v", res.Err)
	assert.Equal(t, int32(1), env.Launcher.Closes.Load())

	dir := env.Config.Output.Dir
	for _, name := range []string{verify.ListViewScreenshot, verify.ChatViewScreenshot, verify.BackToListScreenshot} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	assert.NoFileExists(t, filepath.Join(dir, verify.ErrorScreenshot))

	list, _ := res.Artifact(verify.ListViewScreenshot)
	chat, _ := res.Artifact(verify.ChatViewScreenshot)
	back, _ := res.Artifact(verify.BackToListScreenshot)
	assert.Equal(t, list.Width, back.Width)
	assert.Equal(t, list.Height, back.Height)

	listBytes, err := os.ReadFile(list.Path)
	require.NoError(t, err)
	chatBytes, err := os.ReadFile(chat.Path)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(listBytes, chatBytes), "chat view should not look like the list view")
}

func TestVerificationLoadingNeverHides(t *testing.T) {
	env := helpers.NewEnv(t, fixture.Options{StallLoading: true})
	env.ShortenTimeouts(2 * time.Second)

	res := env.Run(t)
	require.False(t, res.Passed())
	assert.ErrorIs(t, res.Err, verify.ErrTimeout)
	assert.Equal(t, "loading-hidden", verify.FailedStep(res.Err))
	assert.FileExists(t, filepath.Join(env.Config.Output.Dir, verify.ErrorScreenshot))
	assert.NoFileExists(t, filepath.Join(env.Config.Output.Dir, verify.ListViewScreenshot))
	assert.Equal(t, int32(1), env.Launcher.Closes.Load())
}

func TestVerificationChatHeaderWithoutTestID(t *testing.T) {
	env := helpers.NewEnv(t, fixture.Options{OmitChatTestID: true})
	env.ShortenTimeouts(2 * time.Second)

	res := env.Run(t)
	require.False(t, res.Passed())
	assert.Equal(t, "chat-view", verify.FailedStep(res.Err))
	assert.FileExists(t, filepath.Join(env.Config.Output.Dir, verify.ListViewScreenshot))
	assert.FileExists(t, filepath.Join(env.Config.Output.Dir, verify.ErrorScreenshot))
	assert.Equal(t, int32(1), env.Launcher.Closes.Load())
}

func TestVerificationBackButtonWithoutLabel(t *testing.T) {
	env := helpers.NewEnv(t, fixture.Options{OmitBackLabel: true})
	env.ShortenTimeouts(2 * time.Second)

	res := env.Run(t)
	require.False(t, res.Passed())
	assert.Equal(t, "go-back", verify.FailedStep(res.Err))
	assert.FileExists(t, filepath.Join(env.Config.Output.Dir, verify.ChatViewScreenshot))
	assert.FileExists(t, filepath.Join(env.Config.Output.Dir, verify.ErrorScreenshot))
	assert.NoFileExists(t, filepath.Join(env.Config.Output.Dir, verify.BackToListScreenshot))
	assert.Equal(t, int32(1), env.Launcher.Closes.Load())
}

func TestVerificationRepeatedRuns(t *testing.T) {
	env := helpers.NewEnv(t, fixture.Options{})

	first := env.Run(t)
	second := env.Run(t)
	require.True(t, first.Passed(), "first run: %v", first.Err)
	require.True(t, second.Passed(), "second run: %v", second.Err)

	require.Len(t, second.Artifacts, len(first.Artifacts))
	for i := range first.Artifacts {
		assert.Equal(t, first.Artifacts[i].Name, second.Artifacts[i].Name)
		assert.Equal(t, first.Artifacts[i].Width, second.Artifacts[i].Width)
		assert.Equal(t, first.Artifacts[i].Height, second.Artifacts[i].Height)
	}
	assert.Equal(t, int32(2), env.Launcher.Launches.Load())
	assert.Equal(t, int32(2), env.Launcher.Closes.Load())
}

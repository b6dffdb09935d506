package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infrabuilder/internal/config"
	"github.com/imamik/infrabuilder/internal/config/wizard"
)

// saveAndRestoreInitFactories saves and restores init factory functions.
func saveAndRestoreInitFactories(t *testing.T) *bytes.Buffer {
	origFileExists, origRun, origWrite, origOut := wizardFileExists, wizardRunWizard, wizardWriteConfig, stdout
	t.Cleanup(func() {
		wizardFileExists, wizardRunWizard, wizardWriteConfig, stdout = origFileExists, origRun, origWrite, origOut
	})
	out := &bytes.Buffer{}
	stdout = out
	return out
}

func sampleWizardResult() *wizard.WizardResult {
	return &wizard.WizardResult{
		Region:        "eu-central-1",
		StackName:     "my-app",
		Template:      "template.yaml",
		AddJob:        true,
		JobQueue:      "q",
		JobDefinition: "def",
	}
}

func TestInit_WritesTaskFile(t *testing.T) {
	out := saveAndRestoreInitFactories(t)
	path := filepath.Join(t.TempDir(), "infrabuilder.yaml")
	wizardRunWizard = func(context.Context) (*wizard.WizardResult, error) { return sampleWizardResult(), nil }

	require.NoError(t, Init(context.Background(), path, false))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.Len(t, cfg.Tasks, 4)

	assert.Contains(t, out.String(), "Task file saved: "+path)
	assert.Contains(t, out.String(), "  Task:   release")
}

func TestInit_ExistingFileNeedsForce(t *testing.T) {
	saveAndRestoreInitFactories(t)
	path := filepath.Join(t.TempDir(), "infrabuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("region: x\n"), 0600))
	called := false
	wizardRunWizard = func(context.Context) (*wizard.WizardResult, error) {
		called = true
		return sampleWizardResult(), nil
	}

	err := Init(context.Background(), path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.False(t, called)

	require.NoError(t, Init(context.Background(), path, true))
	assert.True(t, called)
}

func TestInit_WizardCanceled(t *testing.T) {
	saveAndRestoreInitFactories(t)
	wizardFileExists = func(string) bool { return false }
	wizardRunWizard = func(context.Context) (*wizard.WizardResult, error) { return nil, errors.New("user aborted") }
	wizardWriteConfig = func(*config.Config, string) error {
		t.Fatal("nothing should be written")
		return nil
	}

	err := Init(context.Background(), "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wizard canceled: user aborted")
}

func TestInit_WriteError(t *testing.T) {
	saveAndRestoreInitFactories(t)
	wizardFileExists = func(string) bool { return false }
	wizardRunWizard = func(context.Context) (*wizard.WizardResult, error) { return sampleWizardResult(), nil }
	var written string
	wizardWriteConfig = func(_ *config.Config, path string) error {
		written = path
		return errors.New("disk full")
	}

	err := Init(context.Background(), "", false)
	require.Error(t, err)
	assert.Equal(t, config.DefaultFile, written)
	assert.Contains(t, err.Error(), "failed to write config: disk full")
}

package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStep(t *testing.T) {
	assert.Equal(t, StepDocumentUpload, NextStep(StepProfileSetup))
	assert.Equal(t, StepIdentityVerification, NextStep(StepDocumentUpload))
	assert.Equal(t, StepPhoneVerification, NextStep(StepIdentityVerification))
	assert.Equal(t, StepFinalReview, NextStep(StepPhoneVerification))
	assert.Equal(t, StepFinalReview, NextStep(StepFinalReview))
}

func TestStepIsValid(t *testing.T) {
	for _, s := range KYCStepOrder {
		assert.True(t, s.IsValid())
	}
	assert.False(t, KYCStep("selfie_upload").IsValid())
}

func TestProgress(t *testing.T) {
	v := &KYCVerification{}
	assert.Equal(t, 0, v.Progress())

	v.CompletedSteps = []CompletedStep{
		{Step: StepProfileSetup, CompletedAt: time.Now()},
		{Step: StepDocumentUpload, CompletedAt: time.Now()},
	}
	assert.Equal(t, 40, v.Progress())

	for _, s := range []KYCStep{StepIdentityVerification, StepPhoneVerification, StepFinalReview} {
		v.CompletedSteps = append(v.CompletedSteps, CompletedStep{Step: s, CompletedAt: time.Now()})
	}
	assert.Equal(t, 100, v.Progress())
}

func TestIsStepCompleted(t *testing.T) {
	v := &KYCVerification{
		CompletedSteps: []CompletedStep{{Step: StepProfileSetup, CompletedAt: time.Now()}},
	}
	assert.True(t, v.IsStepCompleted(StepProfileSetup))
	assert.False(t, v.IsStepCompleted(StepDocumentUpload))
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&KYCVerification{Status: KYCStatusPending}).IsActive())
	assert.True(t, (&KYCVerification{Status: KYCStatusInProgress}).IsActive())
	assert.False(t, (&KYCVerification{Status: KYCStatusCompleted}).IsActive())
	assert.False(t, (&KYCVerification{Status: KYCStatusRejected}).IsActive())
}

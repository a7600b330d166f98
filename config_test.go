package taskhub_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/taskhub"
)

func TestLoadOptions_Section(t *testing.T) {
	doc := []byte(`
TaskHub:
  createIfNotExists: true
  includeDetails: orchestrations
  errorPropagationMode: failure_details
  shutdownTimeout: 5s
Other:
  createIfNotExists: false
`)

	opts, err := taskhub.LoadOptions(doc, "")
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists=true")
	}
	if opts.IncludeDetails != taskhub.IncludeOrchestrations {
		t.Errorf("IncludeDetails = %v, want orchestrations", opts.IncludeDetails)
	}
	if opts.ErrorPropagationMode != taskhub.UseFailureDetails {
		t.Errorf("ErrorPropagationMode = %v, want failure_details", opts.ErrorPropagationMode)
	}
	if opts.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", opts.ShutdownTimeout)
	}
}

func TestLoadOptions_MissingSectionUsesDefaults(t *testing.T) {
	opts, err := taskhub.LoadOptions([]byte("Other:\n  createIfNotExists: true\n"), "TaskHub")
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts != taskhub.DefaultOptions() {
		t.Errorf("expected defaults, got %+v", opts)
	}
}

func TestLoadOptions_PartialSectionKeepsDefaults(t *testing.T) {
	opts, err := taskhub.LoadOptions([]byte("TaskHub:\n  includeDetails: all\n"), "")
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.IncludeDetails != taskhub.IncludeAll {
		t.Errorf("IncludeDetails = %v, want all", opts.IncludeDetails)
	}
	if opts.ShutdownTimeout != taskhub.DefaultOptions().ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want default", opts.ShutdownTimeout)
	}
}

func TestLoadOptions_InvalidEnum(t *testing.T) {
	_, err := taskhub.LoadOptions([]byte("TaskHub:\n  includeDetails: sometimes\n"), "")
	if !errors.Is(err, taskhub.ErrInvalidConfigText) {
		t.Fatalf("expected ErrInvalidConfigText, got %v", err)
	}
}

func TestIncludeDetails_Includes(t *testing.T) {
	tests := []struct {
		details       taskhub.IncludeDetails
		activity      bool
		orchestration bool
	}{
		{taskhub.IncludeNone, false, false},
		{taskhub.IncludeActivities, true, false},
		{taskhub.IncludeOrchestrations, false, true},
		{taskhub.IncludeAll, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.details.String(), func(t *testing.T) {
			if got := tt.details.Includes(taskhub.KindActivity); got != tt.activity {
				t.Errorf("activity: got %v, want %v", got, tt.activity)
			}
			if got := tt.details.Includes(taskhub.KindOrchestration); got != tt.orchestration {
				t.Errorf("orchestration: got %v, want %v", got, tt.orchestration)
			}
		})
	}
}

package validation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	testDir := filepath.Join(tmpDir, "testdir")
	if err := os.Mkdir(testDir, 0755); err != nil {
		t.Fatalf("Failed to create test dir: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "existing file", path: testFile},
		{name: "non-existent file", path: filepath.Join(tmpDir, "nonexistent.txt"), wantErr: "not found"},
		{name: "empty path", path: "", wantErr: "empty"},
		{name: "directory instead of file", path: testDir, wantErr: "directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFileExists(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var fe *FileExistsError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FileExistsError, got %T (%v)", err, err)
			}
			if !strings.Contains(fe.Message, tt.wantErr) {
				t.Errorf("message %q does not contain %q", fe.Message, tt.wantErr)
			}
		})
	}
}

func TestCheckDirWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := CheckDirWritable(dir); err != nil {
		t.Fatalf("CheckDirWritable() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	if err := CheckDirWritable(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestGetDiskSpace_MissingPathUsesParent(t *testing.T) {
	dir := t.TempDir()
	info, err := GetDiskSpace(filepath.Join(dir, "not", "yet", "created"))
	if err != nil {
		t.Fatalf("GetDiskSpace() error = %v", err)
	}
	if info.Total <= 0 || info.Free < 0 {
		t.Errorf("unexpected info %+v", info)
	}

	if _, err := CheckDiskSpace(dir, 1<<62); err == nil {
		t.Error("expected DiskSpaceError for absurd requirement")
	} else {
		var dse *DiskSpaceError
		if !errors.As(err, &dse) {
			t.Errorf("expected *DiskSpaceError, got %T", err)
		}
	}
}

func TestValidationSuite(t *testing.T) {
	pass := Check{Name: "pass", Run: func() (string, error) { return "ok", nil }}
	warn := Check{Name: "warn", Optional: true, Run: func() (string, error) { return "", errors.New("optional missing") }}
	fail := Check{Name: "fail", Run: func() (string, error) { return "", errors.New("broken") }}

	t.Run("warnings do not fail the suite", func(t *testing.T) {
		var buf bytes.Buffer
		result := NewValidationSuite(pass, warn).WithOutput(&buf).Validate("Checks")
		if !result.Success || result.PassedSteps != 1 || result.Warnings != 1 {
			t.Errorf("result = %+v", result)
		}
		if !strings.Contains(buf.String(), "Validation Passed") {
			t.Errorf("missing summary:\n%s", buf.String())
		}
	})

	t.Run("failure is reported", func(t *testing.T) {
		result := NewValidationSuite(pass, fail, pass).WithShowProgress(false).Validate("Checks")
		if result.Success || result.FailedSteps != 1 || result.PassedSteps != 2 {
			t.Errorf("result = %+v", result)
		}
		if err := result.GetFirstError(); err == nil || err.Error() != "broken" {
			t.Errorf("GetFirstError() = %v", err)
		}
		if !strings.HasPrefix(result.Summary(), "Validation Failed: 2/3") {
			t.Errorf("Summary() = %s", result.Summary())
		}
	})

	t.Run("fail fast skips the rest", func(t *testing.T) {
		ran := false
		after := Check{Name: "after", Run: func() (string, error) { ran = true; return "", nil }}
		result := NewValidationSuite(fail).Add(after).WithShowProgress(false).WithFailFast(true).Validate("Checks")
		if ran {
			t.Error("check after failure should not run")
		}
		if result.Steps[1].Status != StepSkipped {
			t.Errorf("status = %s, want skipped", result.Steps[1].Status)
		}
	})
}

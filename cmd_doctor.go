package main

import (
	"fmt"

	"colorizer/colornet"
	"colorizer/core"
	"colorizer/core/validation"
	"colorizer/imageio"
)

// minFreeSpace is the free space doctor expects in the output directory.
const minFreeSpace = 100 * core.BytesPerMB

func runDoctor(a *app, args []string) int {
	if len(args) > 0 {
		return a.fail(usagef("doctor takes no arguments"))
	}

	suite := validation.NewValidationSuite(a.doctorChecks()...).WithOutput(a.stdout)
	result := suite.Validate("Colorizer environment check")
	if !result.Success {
		return core.ExitCodeError
	}
	return core.ExitCodeSuccess
}

func (a *app) doctorChecks() []validation.Check {
	cfg := a.cfg
	checks := []validation.Check{
		{
			Name: "Configuration",
			Run: func() (string, error) {
				return fmt.Sprintf("listen %s, %d workers, quality %d", cfg.ListenAddr, cfg.BatchWorkers, cfg.JPEGQuality), cfg.Validate()
			},
		},
		{
			Name: "Model files",
			Run: func() (string, error) {
				if err := colornet.CheckFiles(cfg.ModelDir); err != nil {
					return "", err
				}
				return cfg.ModelDir, nil
			},
		},
		{
			Name: "Model checksums",
			Run: func() (string, error) {
				if len(cfg.ModelChecksums) == 0 {
					return "", fmt.Errorf("no MODEL_SHA256_* values set")
				}
				if err := colornet.Checksums(cfg.ModelChecksums).Verify(colornet.FilesIn(cfg.ModelDir)); err != nil {
					return "", err
				}
				return fmt.Sprintf("%d verified", len(cfg.ModelChecksums)), nil
			},
			Optional: true,
		},
		{
			Name: "Inference backend",
			Run: func() (string, error) {
				info := colornet.BackendInfo()
				if !imageio.CanEncodeWebP() {
					return info, fmt.Errorf("built without gocv: %s", info)
				}
				return info, nil
			},
			Optional: true,
		},
	}

	for _, dir := range []struct{ name, path string }{
		{"Upload directory", cfg.UploadDir},
		{"Output directory", cfg.OutputDir},
	} {
		checks = append(checks, validation.Check{
			Name: dir.name,
			Run: func() (string, error) {
				return dir.path, validation.CheckDirWritable(dir.path)
			},
		})
	}

	checks = append(checks, validation.Check{
		Name: "Disk space",
		Run: func() (string, error) {
			info, err := validation.CheckDiskSpace(cfg.OutputDir, minFreeSpace)
			if err != nil {
				return "", err
			}
			return core.FormatBytes(info.Free) + " free", nil
		},
		Optional: true,
	})

	if cfg.PresetsFile != "" {
		checks = append(checks, validation.Check{
			Name: "Presets file",
			Run: func() (string, error) {
				if err := validation.CheckFileExists(cfg.PresetsFile); err != nil {
					return "", err
				}
				registry, err := a.loadPresets()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d presets", len(registry.Names())), nil
			},
		})
	}
	return checks
}

package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"rette/internal/core"
)

// Seed file names, looked up inside the configured seed directory.
const (
	SeedStudyPlansFile = "seed_study_plans.json"
	SeedStudentsFile   = "seed_students.json"
	SeedPaymentsFile   = "seed_payments.json"
)

// LoadSeed reads the seed collections shipped with the deployment. Missing or
// malformed files yield empty slices; starting with nothing is fine.
func LoadSeed(dir string) core.Collections {
	return core.Collections{
		StudyPlans: readSeedFile[core.StudyPlan](filepath.Join(dir, SeedStudyPlansFile)),
		Students:   readSeedFile[core.Student](filepath.Join(dir, SeedStudentsFile)),
		Payments:   readSeedFile[core.Payment](filepath.Join(dir, SeedPaymentsFile)),
	}
}

func readSeedFile[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Seed file unreadable", "path", path, "error", err)
		}
		return nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("Seed file is malformed, ignoring", "path", path, "error", err)
		return nil
	}
	return records
}

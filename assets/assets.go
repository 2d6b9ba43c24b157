package assets

import (
	"embed"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/teacher"
)

// TemplatesDir is the directory of the email templates in FS.
const TemplatesDir = "templates"

//go:embed seed/teachers.json templates/*
var FS embed.FS

// SeedTeachers returns the demo roster loaded at startup.
func SeedTeachers() ([]teacher.Teacher, error) {
	data, err := FS.ReadFile("seed/teachers.json")
	if err != nil {
		return nil, errors.Wrap(err, "reading seed data")
	}
	var teachers []teacher.Teacher
	if err := json.Unmarshal(data, &teachers); err != nil {
		return nil, errors.Wrap(err, "decoding seed data")
	}
	return teachers, nil
}
